package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"slaintel/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const dayLayout = "2006-01-02"

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS work_items (
		id                    TEXT PRIMARY KEY,
		number                TEXT DEFAULT '',
		title                 TEXT DEFAULT '',
		item_type             TEXT NOT NULL,
		priority              TEXT NOT NULL,
		status                TEXT NOT NULL,
		owner_id              TEXT DEFAULT '',
		business_days_elapsed INTEGER NOT NULL DEFAULT 0,
		financial_impact      REAL,
		submitted_at          DATETIME NOT NULL,
		resolved_at           DATETIME,
		updated_at            DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status);
	CREATE INDEX IF NOT EXISTS idx_work_items_owner ON work_items(owner_id);

	CREATE TABLE IF NOT EXISTS daily_history (
		day                 TEXT PRIMARY KEY,
		total_count         INTEGER NOT NULL,
		new_count           INTEGER NOT NULL,
		resolved_count      INTEGER NOT NULL,
		active_count        INTEGER NOT NULL,
		on_track_count      INTEGER NOT NULL,
		at_risk_count       INTEGER NOT NULL,
		breached_count      INTEGER NOT NULL,
		avg_resolution_days REAL NOT NULL,
		recorded_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS evaluation_runs (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		ran_at           DATETIME NOT NULL,
		item_count       INTEGER NOT NULL,
		skipped_count    INTEGER NOT NULL,
		breached_count   INTEGER NOT NULL,
		at_risk_count    INTEGER NOT NULL,
		alert_count      INTEGER NOT NULL,
		capacity_percent REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_evaluation_runs_ran_at ON evaluation_runs(ran_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// UpsertWorkItems writes items keyed by id, replacing existing rows.
func UpsertWorkItems(db *sql.DB, items []domain.WorkItem) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO work_items (id, number, title, item_type, priority, status, owner_id, business_days_elapsed, financial_impact, submitted_at, resolved_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
		   number = excluded.number,
		   title = excluded.title,
		   item_type = excluded.item_type,
		   priority = excluded.priority,
		   status = excluded.status,
		   owner_id = excluded.owner_id,
		   business_days_elapsed = excluded.business_days_elapsed,
		   financial_impact = excluded.financial_impact,
		   submitted_at = excluded.submitted_at,
		   resolved_at = excluded.resolved_at,
		   updated_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	written := 0
	for _, item := range items {
		if item.ID == "" {
			return written, fmt.Errorf("work item #%d has no id", written+1)
		}
		var impact sql.NullFloat64
		if item.FinancialImpact != nil {
			impact = sql.NullFloat64{Float64: *item.FinancialImpact, Valid: true}
		}
		var resolved sql.NullTime
		if item.ResolvedAt != nil {
			resolved = sql.NullTime{Time: item.ResolvedAt.UTC(), Valid: true}
		}
		_, err := stmt.Exec(
			item.ID, item.Number, item.Title, item.ItemType, string(item.Priority), string(item.Status),
			item.OwnerID, item.BusinessDaysElapsed, impact, item.SubmittedAt.UTC(), resolved,
		)
		if err != nil {
			return written, err
		}
		written++
	}
	return written, tx.Commit()
}

// ListWorkItems returns the full snapshot ordered by submission time.
func ListWorkItems(db *sql.DB) ([]domain.WorkItem, error) {
	rows, err := db.Query(
		`SELECT id, number, title, item_type, priority, status, owner_id, business_days_elapsed, financial_impact, submitted_at, resolved_at
		 FROM work_items ORDER BY submitted_at, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		var priority, status string
		var impact sql.NullFloat64
		var resolved sql.NullTime
		err := rows.Scan(
			&item.ID, &item.Number, &item.Title, &item.ItemType, &priority, &status,
			&item.OwnerID, &item.BusinessDaysElapsed, &impact, &item.SubmittedAt, &resolved,
		)
		if err != nil {
			return nil, err
		}
		item.Priority = domain.Priority(priority)
		item.Status = domain.NormalizeStatus(status)
		if impact.Valid {
			v := impact.Float64
			item.FinancialImpact = &v
		}
		if resolved.Valid {
			t := resolved.Time
			item.ResolvedAt = &t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func CountWorkItems(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM work_items").Scan(&count)
	return count, err
}

// --- Daily history ---

// UpsertDailyAggregate stores the aggregate for its calendar day, replacing
// any earlier aggregate for the same day.
func UpsertDailyAggregate(db *sql.DB, agg domain.DailyAggregate) error {
	_, err := db.Exec(
		`INSERT INTO daily_history (day, total_count, new_count, resolved_count, active_count, on_track_count, at_risk_count, breached_count, avg_resolution_days, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(day) DO UPDATE SET
		   total_count = excluded.total_count,
		   new_count = excluded.new_count,
		   resolved_count = excluded.resolved_count,
		   active_count = excluded.active_count,
		   on_track_count = excluded.on_track_count,
		   at_risk_count = excluded.at_risk_count,
		   breached_count = excluded.breached_count,
		   avg_resolution_days = excluded.avg_resolution_days,
		   recorded_at = CURRENT_TIMESTAMP`,
		agg.Date.Format(dayLayout), agg.TotalCount, agg.NewCount, agg.ResolvedCount, agg.ActiveCount,
		agg.OnTrackCount, agg.AtRiskCount, agg.BreachedCount, agg.AvgResolutionDays,
	)
	return err
}

// GetDailyAggregates returns aggregates from since's calendar day onward,
// oldest first, with dates at midnight in since's location.
func GetDailyAggregates(db *sql.DB, since time.Time) ([]domain.DailyAggregate, error) {
	rows, err := db.Query(
		`SELECT day, total_count, new_count, resolved_count, active_count, on_track_count, at_risk_count, breached_count, avg_resolution_days
		 FROM daily_history WHERE day >= ? ORDER BY day`,
		since.Format(dayLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyAggregate
	for rows.Next() {
		var day string
		var agg domain.DailyAggregate
		err := rows.Scan(
			&day, &agg.TotalCount, &agg.NewCount, &agg.ResolvedCount, &agg.ActiveCount,
			&agg.OnTrackCount, &agg.AtRiskCount, &agg.BreachedCount, &agg.AvgResolutionDays,
		)
		if err != nil {
			return nil, err
		}
		agg.Date, err = time.ParseInLocation(dayLayout, day, since.Location())
		if err != nil {
			return nil, fmt.Errorf("parse history day %q: %w", day, err)
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

// --- Evaluation runs ---

type EvaluationRun struct {
	ID              int64
	RanAt           time.Time
	ItemCount       int
	SkippedCount    int
	BreachedCount   int
	AtRiskCount     int
	AlertCount      int
	CapacityPercent float64
}

func InsertEvaluationRun(db *sql.DB, run EvaluationRun) error {
	_, err := db.Exec(
		`INSERT INTO evaluation_runs (ran_at, item_count, skipped_count, breached_count, at_risk_count, alert_count, capacity_percent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RanAt.UTC(), run.ItemCount, run.SkippedCount, run.BreachedCount, run.AtRiskCount, run.AlertCount, run.CapacityPercent,
	)
	return err
}

func GetRecentEvaluationRuns(db *sql.DB, limit int) ([]EvaluationRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.Query(
		`SELECT id, ran_at, item_count, skipped_count, breached_count, at_risk_count, alert_count, capacity_percent
		 FROM evaluation_runs ORDER BY ran_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []EvaluationRun
	for rows.Next() {
		var r EvaluationRun
		if err := rows.Scan(&r.ID, &r.RanAt, &r.ItemCount, &r.SkippedCount, &r.BreachedCount, &r.AtRiskCount, &r.AlertCount, &r.CapacityPercent); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
