package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"slaintel/internal/domain"
	"slaintel/internal/storage/sqlite"
)

// Source names where work items come from. Both may be set; the feed is
// read first and file records with the same id win.
type Source struct {
	FeedURL   string
	FeedToken string
	FilePath  string
	Client    *http.Client
	Location  *time.Location
}

func (s Source) Configured() bool {
	return strings.TrimSpace(s.FeedURL) != "" || strings.TrimSpace(s.FilePath) != ""
}

// ImportResult tracks separate counters for each skip reason.
type ImportResult struct {
	TotalFetched   int
	Upserted       int
	SkippedInvalid int
	SkippedNonTeam int
	Errors         []string
}

// Import reads every configured source, validates the records and upserts
// them into the store. When teamMembers is non-empty, items owned by anyone
// else are skipped; unassigned items are always kept.
func Import(ctx context.Context, db *sql.DB, src Source, teamMembers []string) (ImportResult, error) {
	if !src.Configured() {
		return ImportResult{}, fmt.Errorf("no work item source is configured")
	}
	loc := src.Location
	if loc == nil {
		loc = time.UTC
	}
	client := src.Client
	if client == nil {
		client = http.DefaultClient
	}

	var result ImportResult
	var records []itemRecord

	if src.FeedURL != "" {
		recs, err := fetchFeed(ctx, client, src.FeedURL, src.FeedToken)
		if err != nil {
			log.Printf("import feed error: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("Feed: %v", err))
		} else {
			records = append(records, recs...)
		}
	}
	if src.FilePath != "" {
		recs, err := loadFile(src.FilePath)
		if err != nil {
			log.Printf("import file error: %v", err)
			result.Errors = append(result.Errors, fmt.Sprintf("File: %v", err))
		} else {
			records = append(records, recs...)
		}
	}
	result.TotalFetched = len(records)
	if result.TotalFetched == 0 && len(result.Errors) > 0 {
		return result, fmt.Errorf("all work item sources failed")
	}

	team := make(map[string]bool, len(teamMembers))
	for _, m := range teamMembers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			team[m] = true
		}
	}

	byID := make(map[string]int)
	var items []domain.WorkItem
	for _, rec := range records {
		item, err := rec.toWorkItem(loc)
		if err != nil {
			log.Printf("import skipped invalid item id=%q: %v", rec.ID, err)
			result.SkippedInvalid++
			continue
		}
		if len(team) > 0 && item.HasOwner() && !team[strings.ToLower(item.OwnerID)] {
			log.Printf("import skipped non-team owner=%s item=%s", item.OwnerID, item.ID)
			result.SkippedNonTeam++
			continue
		}
		if idx, ok := byID[item.ID]; ok {
			items[idx] = item
			continue
		}
		byID[item.ID] = len(items)
		items = append(items, item)
	}

	if len(items) > 0 {
		n, err := sqlite.UpsertWorkItems(db, items)
		if err != nil {
			return result, fmt.Errorf("store work items: %w", err)
		}
		result.Upserted = n
	}
	log.Printf("import complete fetched=%d upserted=%d invalid=%d non_team=%d", result.TotalFetched, result.Upserted, result.SkippedInvalid, result.SkippedNonTeam)
	return result, nil
}

func FormatImportSummary(result ImportResult) string {
	if result.TotalFetched == 0 && len(result.Errors) > 0 {
		return fmt.Sprintf("Error importing work items:\n%s", strings.Join(result.Errors, "\n"))
	}

	var skipped []string
	if result.SkippedInvalid > 0 {
		skipped = append(skipped, fmt.Sprintf("%d invalid", result.SkippedInvalid))
	}
	if result.SkippedNonTeam > 0 {
		skipped = append(skipped, fmt.Sprintf("%d non-team", result.SkippedNonTeam))
	}

	var msg string
	if result.Upserted == 0 {
		msg = fmt.Sprintf("Found %d work items, none stored", result.TotalFetched)
		if len(skipped) > 0 {
			msg += fmt.Sprintf(" (%s)", strings.Join(skipped, ", "))
		}
		msg += "."
	} else {
		parts := append([]string{fmt.Sprintf("%d stored", result.Upserted)}, skipped...)
		msg = fmt.Sprintf("Imported %d work items: %s", result.TotalFetched, strings.Join(parts, ", "))
	}
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(result.Errors, "\n"))
	}
	return msg
}
