package synthetic

import (
	"reflect"
	"testing"
	"time"
)

func TestHistoryIsReproducible(t *testing.T) {
	end := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	a := History(42, 90, end)
	b := History(42, 90, end)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical series for the same seed")
	}
	c := History(43, 90, end)
	if reflect.DeepEqual(a, c) {
		t.Fatal("expected different series for a different seed")
	}
}

func TestHistoryShape(t *testing.T) {
	end := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)
	series := History(1, 60, end)
	if len(series) != 60 {
		t.Fatalf("expected 60 days, got %d", len(series))
	}
	if !series[59].Date.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day to be end truncated to midnight, got %s", series[59].Date)
	}
	for i, agg := range series {
		if i > 0 && !agg.Date.Equal(series[i-1].Date.AddDate(0, 0, 1)) {
			t.Fatalf("day %d: dates not consecutive", i)
		}
		if agg.OnTrackCount+agg.AtRiskCount+agg.BreachedCount != agg.ActiveCount {
			t.Fatalf("day %d: state counts do not add up: %+v", i, agg)
		}
		if agg.NewCount < 0 || agg.ResolvedCount < 0 || agg.ActiveCount <= 0 {
			t.Fatalf("day %d: unexpected counts: %+v", i, agg)
		}
		if wd := agg.Date.Weekday(); (wd == time.Saturday || wd == time.Sunday) && agg.NewCount > 2 {
			t.Fatalf("day %d: weekend volume too high: %d", i, agg.NewCount)
		}
	}
	if History(1, 0, end) != nil {
		t.Fatal("expected nil for zero days")
	}
}
