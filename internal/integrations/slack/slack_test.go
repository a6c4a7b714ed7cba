package slackbot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slaintel/internal/analysis"
	"slaintel/internal/domain"

	"github.com/slack-go/slack"
)

type mockSlack struct {
	postCalls     int
	openCalls     int
	usersCalls    int
	lastChannel   string
	lastText      string
	postedToUsers []string
}

func newMockSlackAPI(t *testing.T) (*slack.Client, *mockSlack) {
	t.Helper()
	resetUserCache()
	t.Cleanup(resetUserCache)

	m := &mockSlack{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		switch path {
		case "users.list":
			m.usersCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok": true,
				"members": []map[string]any{
					{
						"id":        "U0ALICE01",
						"name":      "alice",
						"real_name": "Alice Smith",
						"profile":   map[string]any{"display_name": "Alice"},
					},
					{
						"id":        "U0BOB0001",
						"name":      "bob.jones",
						"real_name": "Bob Jones",
						"profile":   map[string]any{"display_name": ""},
					},
					{
						"id":        "U0BOT0001",
						"name":      "carol",
						"real_name": "Carol Bot",
						"is_bot":    true,
					},
				},
			})
		case "conversations.open":
			_ = r.ParseForm()
			m.openCalls++
			m.postedToUsers = append(m.postedToUsers, r.Form.Get("users"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":      true,
				"channel": map[string]any{"id": "D_" + r.Form.Get("users")},
			})
		case "chat.postMessage":
			_ = r.ParseForm()
			m.postCalls++
			m.lastChannel = r.Form.Get("channel")
			m.lastText = r.Form.Get("text")
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": m.lastChannel, "ts": "1.23"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		}
	}))
	t.Cleanup(server.Close)

	return slack.New("xoxb-test", slack.OptionAPIURL(server.URL+"/api/")), m
}

func sampleReport() analysis.Report {
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	return analysis.Report{
		GeneratedAt: now,
		Statuses: []domain.SLAStatus{
			{ItemID: "1", State: domain.SLABreached},
			{ItemID: "2", State: domain.SLAAtRisk},
			{ItemID: "3", State: domain.SLAOnTrack},
		},
		Loads: []domain.OwnerLoad{
			{OwnerID: "alice", ActiveItemCount: 4, CapacityPercent: 95, LoadClass: domain.LoadHigh},
		},
		Predictions: []domain.BreachPrediction{
			{ItemID: "2", ItemRef: "CASE-2", Title: "Quota dispute", OwnerID: "alice", BreachProbabilityPercent: 80,
				DaysUntilBreach: 1, PredictedBreachDate: now.AddDate(0, 0, 1), RecommendedAction: "Prioritize",
				RiskFactors: []string{"Very close to SLA deadline", "High financial impact"}},
			{ItemID: "4", ItemRef: "CASE-4", Title: "Territory move", OwnerID: "Bob Jones", BreachProbabilityPercent: 60,
				DaysUntilBreach: 3, PredictedBreachDate: now.AddDate(0, 0, 3), RecommendedAction: "Monitor"},
			{ItemID: "5", ItemRef: "CASE-5", Title: "Orphan", BreachProbabilityPercent: 55, DaysUntilBreach: 4},
		},
		Capacity: domain.CapacityAnalysis{
			CurrentCapacityPercent:       73,
			CurrentTeamSize:              2,
			OptimalTeamSize:              3,
			WorkloadTrend:                domain.TrendIncreasing,
			ForecastedCapacity7dPercent:  80,
			ForecastedCapacity30dPercent: 92,
			Recommendation:               "Consider adding 1 owner",
		},
		Bottlenecks: []domain.Bottleneck{
			{Type: domain.BottleneckOwnerOverload, Location: "alice", Severity: 95, EstimatedDelayDays: 2, Recommendation: "Redistribute"},
		},
		Alerts: []domain.Alert{
			{ID: "a1", Type: domain.AlertSLABreach, Severity: domain.SeverityCritical, Title: "1 item past SLA deadline",
				Description: "CASE-1 is breached", ActionRequired: "Escalate now", AffectedOwners: []string{"alice", "dave"}},
		},
	}
}

func TestFormatAlertDigest(t *testing.T) {
	text := FormatAlertDigest(sampleReport(), "Ops", map[string]string{"alice": "U0ALICE01"})

	for _, want := range []string{
		"*SLA alerts for Ops* (2026-03-11 09:00)",
		"Breached 1 | At risk 1 | On track 1 | Capacity 73% | 30d forecast 92%",
		":red_circle: *CRITICAL* 1 item past SLA deadline",
		"> Owners: <@U0ALICE01>, dave",
		"> _Action:_ Escalate now",
		"`CASE-2` Quota dispute (<@U0ALICE01>) 80% in 1d",
		"(Bob Jones)",
		"(unassigned)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected digest to contain %q, got:\n%s", want, text)
		}
	}
}

func TestFormatAlertDigestQuietAndTruncated(t *testing.T) {
	r := sampleReport()
	r.Alerts = nil
	text := FormatAlertDigest(r, "Ops", nil)
	if !strings.Contains(text, "No active alerts.") {
		t.Fatalf("expected quiet marker, got:\n%s", text)
	}

	r.Predictions = nil
	for i := 0; i < maxDigestPredictions+2; i++ {
		r.Predictions = append(r.Predictions, domain.BreachPrediction{ItemRef: "X", OwnerID: "alice"})
	}
	text = FormatAlertDigest(r, "Ops", nil)
	if !strings.Contains(text, "…and 2 more") {
		t.Fatalf("expected truncation line, got:\n%s", text)
	}
	if got := strings.Count(text, "`X`"); got != maxDigestPredictions {
		t.Fatalf("expected %d prediction lines, got %d", maxDigestPredictions, got)
	}
}

func TestFormatCapacityDigest(t *testing.T) {
	text := FormatCapacityDigest(sampleReport(), "Ops")
	for _, want := range []string{
		"*Weekly capacity digest for Ops* (2026-03-11)",
		"Team size: 2 (optimal 3)",
		"73% now, 80% next 7d, 92% next 30d",
		"Workload trend: INCREASING",
		"*alice* (OWNER_OVERLOAD, severity 95, ~2d delay): Redistribute",
		"alice: 95% (HIGH), 4 active",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected capacity digest to contain %q, got:\n%s", want, text)
		}
	}
}

func TestPostDigest(t *testing.T) {
	api, m := newMockSlackAPI(t)

	if err := PostDigest(api, "", "ignored"); err != nil {
		t.Fatalf("expected no-op for empty channel, got %v", err)
	}
	if m.postCalls != 0 {
		t.Fatalf("expected no post for empty channel, got %d", m.postCalls)
	}

	if err := PostDigest(api, "C_ALERTS", "hello"); err != nil {
		t.Fatalf("PostDigest failed: %v", err)
	}
	if m.postCalls != 1 || m.lastChannel != "C_ALERTS" || m.lastText != "hello" {
		t.Fatalf("unexpected post: calls=%d channel=%q text=%q", m.postCalls, m.lastChannel, m.lastText)
	}
}

func TestResolveOwnerMentions(t *testing.T) {
	api, m := newMockSlackAPI(t)

	got, unresolved, err := ResolveOwnerMentions(api, []string{"U0DIRECT1", "alice", "bob jones", "Alice Smith", "carol", "zed", "alice"})
	if err != nil {
		t.Fatalf("ResolveOwnerMentions failed: %v", err)
	}
	want := map[string]string{
		"U0DIRECT1":   "U0DIRECT1",
		"alice":       "U0ALICE01",
		"bob jones":   "U0BOB0001",
		"Alice Smith": "U0ALICE01",
	}
	for owner, id := range want {
		if got[owner] != id {
			t.Fatalf("expected %s -> %s, got %q (all=%v)", owner, id, got[owner], got)
		}
	}
	if len(unresolved) != 2 || unresolved[0] != "carol" || unresolved[1] != "zed" {
		t.Fatalf("expected bots and unknown names unresolved, got %v", unresolved)
	}

	if _, _, err := ResolveOwnerMentions(api, []string{"alice"}); err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if m.usersCalls != 1 {
		t.Fatalf("expected users.list to be cached, got %d calls", m.usersCalls)
	}
}

func TestResolveOwnerMentionsIDsOnlySkipsLookup(t *testing.T) {
	api, m := newMockSlackAPI(t)
	got, unresolved, err := ResolveOwnerMentions(api, []string{"U0DIRECT1", " "})
	if err != nil || len(unresolved) != 0 || got["U0DIRECT1"] != "U0DIRECT1" {
		t.Fatalf("unexpected result: %v %v %v", got, unresolved, err)
	}
	if m.usersCalls != 0 {
		t.Fatalf("expected no users.list call, got %d", m.usersCalls)
	}
}

func TestSendOwnerNudges(t *testing.T) {
	api, m := newMockSlackAPI(t)
	r := sampleReport()

	sent := SendOwnerNudges(api, r.Predictions, map[string]string{"alice": "U0ALICE01"})
	if sent != 1 {
		t.Fatalf("expected 1 nudge, got %d", sent)
	}
	if m.openCalls != 1 || m.postedToUsers[0] != "U0ALICE01" {
		t.Fatalf("expected DM opened with alice, got %v", m.postedToUsers)
	}
	if m.lastChannel != "D_U0ALICE01" {
		t.Fatalf("expected post to DM channel, got %q", m.lastChannel)
	}
	if !strings.Contains(m.lastText, "one of your items") || !strings.Contains(m.lastText, "`CASE-2` Quota dispute: 80% by Thu Mar 12 (Very close to SLA deadline). Prioritize") {
		t.Fatalf("unexpected nudge text:\n%s", m.lastText)
	}
	if strings.Contains(m.lastText, "High financial impact") {
		t.Fatalf("expected only the first risk factor, got:\n%s", m.lastText)
	}
}

func TestNameMatches(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Alice", "Alice Smith", true},
		{"alice.smith", "Alice Smith (Ops)", true},
		{"Alice Jones", "Alice Smith", false},
		{"", "Alice", false},
	}
	for _, tt := range tests {
		if got := nameMatches(tt.a, tt.b); got != tt.want {
			t.Fatalf("nameMatches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
	if !isLikelySlackID("U0ALICE01") || isLikelySlackID("alice") || isLikelySlackID("X0ALICE01") {
		t.Fatal("isLikelySlackID classification is wrong")
	}
}
