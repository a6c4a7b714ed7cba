package domain

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityUrgent Priority = "URGENT"
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

type ItemStatus string

const (
	StatusNew         ItemStatus = "NEW"
	StatusInProgress  ItemStatus = "IN_PROGRESS"
	StatusUnderReview ItemStatus = "UNDER_REVIEW"
	StatusPendingInfo ItemStatus = "PENDING_INFO"
	StatusEscalated   ItemStatus = "ESCALATED"
	StatusResolved    ItemStatus = "RESOLVED"
	StatusClosed      ItemStatus = "CLOSED"
)

// IsTerminal reports whether the item no longer counts as active work.
func (s ItemStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s ItemStatus) IsKnown() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusUnderReview, StatusPendingInfo, StatusEscalated, StatusResolved, StatusClosed:
		return true
	}
	return false
}

func NormalizeStatus(s string) ItemStatus {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	return ItemStatus(normalized)
}

// WorkItem is a read-only case record supplied by the work-item store.
type WorkItem struct {
	ID                  string
	Number              string
	Title               string
	ItemType            string
	Priority            Priority
	Status              ItemStatus
	OwnerID             string // empty when unassigned
	BusinessDaysElapsed int
	FinancialImpact     *float64
	SubmittedAt         time.Time
	ResolvedAt          *time.Time
}

func (w WorkItem) IsActive() bool {
	return !w.Status.IsTerminal()
}

func (w WorkItem) HasOwner() bool {
	return strings.TrimSpace(w.OwnerID) != ""
}

// DisplayRef is the human-facing reference: the case number when present, else the ID.
func (w WorkItem) DisplayRef() string {
	if w.Number != "" {
		return w.Number
	}
	return w.ID
}

// OwnersOf returns the distinct non-empty owners in first-seen order.
func OwnersOf(items []WorkItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if !item.HasOwner() || seen[item.OwnerID] {
			continue
		}
		seen[item.OwnerID] = true
		out = append(out, item.OwnerID)
	}
	return out
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
