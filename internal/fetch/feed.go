// Package fetch imports work items into the local store from a JSON feed
// or a YAML/JSON file.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"slaintel/internal/domain"

	"gopkg.in/yaml.v3"
)

const feedPageSize = 100

type itemRecord struct {
	ID                  string   `json:"id" yaml:"id"`
	Number              string   `json:"number" yaml:"number"`
	Title               string   `json:"title" yaml:"title"`
	ItemType            string   `json:"item_type" yaml:"item_type"`
	Priority            string   `json:"priority" yaml:"priority"`
	Status              string   `json:"status" yaml:"status"`
	OwnerID             string   `json:"owner_id" yaml:"owner_id"`
	BusinessDaysElapsed int      `json:"business_days_elapsed" yaml:"business_days_elapsed"`
	FinancialImpact     *float64 `json:"financial_impact" yaml:"financial_impact"`
	SubmittedAt         string   `json:"submitted_at" yaml:"submitted_at"`
	ResolvedAt          string   `json:"resolved_at" yaml:"resolved_at"`
}

type itemFile struct {
	Items []itemRecord `yaml:"items"`
}

// fetchFeed pages through a JSON work-item feed. Each page is a JSON array;
// a page shorter than the page size ends the walk.
func fetchFeed(ctx context.Context, client *http.Client, feedURL, token string) ([]itemRecord, error) {
	base, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}

	var all []itemRecord
	page := 1
	log.Printf("feed fetch start url=%s", base.Redacted())

	for {
		q := base.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(feedPageSize))
		pageURL := *base
		pageURL.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching work items: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("work item feed returned %d: %s", resp.StatusCode, string(body))
		}

		var records []itemRecord
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		all = append(all, records...)
		log.Printf("feed fetch page=%d items=%d", page, len(records))

		if len(records) < feedPageSize {
			break
		}
		page++
	}

	log.Printf("feed fetch done total=%d", len(all))
	return all, nil
}

// loadFile reads records from a file holding either a top-level "items"
// list or a bare list. JSON files parse as YAML.
func loadFile(path string) ([]itemRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read work item file: %w", err)
	}
	var file itemFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.Items) > 0 {
		return file.Items, nil
	}
	var records []itemRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse work item file: %w", err)
	}
	return records, nil
}

func (r itemRecord) toWorkItem(loc *time.Location) (domain.WorkItem, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return domain.WorkItem{}, fmt.Errorf("id is required")
	}
	prio, err := domain.ParsePriority(r.Priority)
	if err != nil {
		return domain.WorkItem{}, err
	}
	status := domain.NormalizeStatus(r.Status)
	if !status.IsKnown() {
		return domain.WorkItem{}, fmt.Errorf("unknown status %q", r.Status)
	}
	if r.BusinessDaysElapsed < 0 {
		return domain.WorkItem{}, fmt.Errorf("business_days_elapsed must be >= 0, got %d", r.BusinessDaysElapsed)
	}
	submitted, err := parseTimestamp(r.SubmittedAt, loc)
	if err != nil {
		return domain.WorkItem{}, fmt.Errorf("submitted_at: %w", err)
	}
	item := domain.WorkItem{
		ID:                  id,
		Number:              strings.TrimSpace(r.Number),
		Title:               strings.TrimSpace(r.Title),
		ItemType:            strings.ToUpper(strings.TrimSpace(r.ItemType)),
		Priority:            prio,
		Status:              status,
		OwnerID:             strings.TrimSpace(r.OwnerID),
		BusinessDaysElapsed: r.BusinessDaysElapsed,
		FinancialImpact:     r.FinancialImpact,
		SubmittedAt:         submitted,
	}
	if strings.TrimSpace(r.ResolvedAt) != "" {
		resolved, err := parseTimestamp(r.ResolvedAt, loc)
		if err != nil {
			return domain.WorkItem{}, fmt.Errorf("resolved_at: %w", err)
		}
		item.ResolvedAt = &resolved
	}
	return item, nil
}

// parseTimestamp accepts RFC 3339 or a bare date in loc.
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return t, nil
}
