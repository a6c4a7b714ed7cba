package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slaintel/internal/domain"

	"gopkg.in/yaml.v3"
)

func TestEmbeddedCatalogIsValidYAML(t *testing.T) {
	if len(defaultPolicies) == 0 {
		t.Fatal("embedded policy catalog is empty")
	}
	var dump map[string]interface{}
	if err := yaml.Unmarshal(defaultPolicies, &dump); err != nil {
		t.Fatalf("embedded catalog is not valid YAML: %v", err)
	}
}

func TestDefaultCatalogCoversEveryTypeAndPriority(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	types := c.ItemTypes()
	if len(types) != 5 {
		t.Fatalf("expected 5 item types, got %d (%v)", len(types), types)
	}
	if c.Len() != 20 {
		t.Fatalf("expected 20 policies, got %d", c.Len())
	}
	for _, typ := range types {
		for _, prio := range domain.Priorities {
			if _, err := c.Lookup(typ, prio); err != nil {
				t.Fatalf("missing default policy for %s/%s: %v", typ, prio, err)
			}
		}
	}

	p, err := c.Lookup("DISPUTE", domain.PriorityUrgent)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.TargetResolutionDays != 3 || p.WarningThresholdPercent != 66 || p.EscalationThresholdPercent != 90 {
		t.Fatalf("unexpected DISPUTE/URGENT policy: %+v", p)
	}
}

func TestLookupMissingReturnsPolicyNotFound(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	_, err = c.Lookup("CHARGEBACK", domain.PriorityHigh)
	if err == nil {
		t.Fatal("expected error for unknown item type")
	}
	var notFound *PolicyNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected PolicyNotFoundError, got %T", err)
	}
	if notFound.ItemType != "CHARGEBACK" || notFound.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected error fields: %+v", notFound)
	}
	if !errors.Is(err, ErrPolicyNotFound) {
		t.Fatal("expected errors.Is(err, ErrPolicyNotFound)")
	}
}

func TestLookupNormalizesItemType(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if _, err := c.Lookup(" dispute ", domain.PriorityLow); err != nil {
		t.Fatalf("expected case-insensitive lookup, got %v", err)
	}
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	full := func(extra string) string {
		var sb strings.Builder
		sb.WriteString("policies:\n")
		for _, p := range []string{"URGENT", "HIGH", "MEDIUM", "LOW"} {
			sb.WriteString("  - item_type: X\n    priority: " + p + "\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n")
		}
		sb.WriteString(extra)
		return sb.String()
	}

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "policies: []\n", "no policies"},
		{"duplicate", full("  - item_type: X\n    priority: LOW\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n"), "duplicate"},
		{"missing priority", "policies:\n  - item_type: Y\n    priority: HIGH\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n", "missing policies"},
		{"zero target", "policies:\n  - item_type: Y\n    priority: HIGH\n    target_resolution_days: 0\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n", "target_resolution_days"},
		{"warning above escalation", "policies:\n  - item_type: Y\n    priority: HIGH\n    target_resolution_days: 5\n    warning_threshold_percent: 95\n    escalation_threshold_percent: 90\n", "warning_threshold_percent"},
		{"escalation above 100", "policies:\n  - item_type: Y\n    priority: HIGH\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 120\n", "escalation_threshold_percent"},
		{"bad priority", "policies:\n  - item_type: Y\n    priority: SOMEDAY\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n", "unknown priority"},
		{"undeclared type", "item_types: [X]\n" + full("  - item_type: Z\n    priority: LOW\n    target_resolution_days: 5\n    warning_threshold_percent: 70\n    escalation_threshold_percent: 90\n"), "undeclared item type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected Load to fail")
			}
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("expected ErrInvalidPolicy, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFileAndDefaultIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	content := "policies:\n"
	for _, p := range []string{"URGENT", "HIGH", "MEDIUM", "LOW"} {
		content += "  - item_type: refund\n    priority: " + p + "\n    target_resolution_days: 4\n    warning_threshold_percent: 50\n    escalation_threshold_percent: 75\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	types := c.ItemTypes()
	if len(types) != 1 || types[0] != "REFUND" {
		t.Fatalf("unexpected item types: %v", types)
	}
	p, err := c.Lookup("REFUND", domain.PriorityMedium)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if p.ID != "sla-refund-medium" {
		t.Fatalf("expected generated id sla-refund-medium, got %q", p.ID)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected LoadFile to fail for a missing file")
	}
}

func TestCatalogAccessorsReturnCopies(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	types := c.ItemTypes()
	types[0] = "MUTATED"
	policies := c.Policies()
	policies[0].TargetResolutionDays = 999

	if c.ItemTypes()[0] == "MUTATED" {
		t.Fatal("ItemTypes must return a copy")
	}
	if c.Policies()[0].TargetResolutionDays == 999 {
		t.Fatal("Policies must return a copy")
	}
}
