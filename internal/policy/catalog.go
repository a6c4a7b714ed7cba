// Package policy holds the SLA policy catalog: the static table of target
// resolution windows and risk thresholds keyed by (item type, priority).
//
// A Catalog is built once at startup, validated for full coverage, and never
// mutated afterwards. Swapping policies means loading a new Catalog.
package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"slaintel/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed default_policies.yaml
var defaultPolicies []byte

var ErrInvalidPolicy = errors.New("invalid sla policy catalog")

type catalogFile struct {
	ItemTypes []string      `yaml:"item_types"`
	Policies  []policyEntry `yaml:"policies"`
}

type policyEntry struct {
	ID                         string  `yaml:"id"`
	ItemType                   string  `yaml:"item_type"`
	Priority                   string  `yaml:"priority"`
	TargetResolutionDays       int     `yaml:"target_resolution_days"`
	WarningThresholdPercent    float64 `yaml:"warning_threshold_percent"`
	EscalationThresholdPercent float64 `yaml:"escalation_threshold_percent"`
	Description                string  `yaml:"description"`
}

type Key struct {
	ItemType string
	Priority domain.Priority
}

func (k Key) String() string {
	return k.ItemType + "/" + string(k.Priority)
}

// Catalog is an immutable lookup table of SLA policies.
type Catalog struct {
	byKey     map[Key]domain.SLAPolicy
	itemTypes []string
	ordered   []domain.SLAPolicy
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultPolicies)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy catalog: %w", err)
	}
	return Load(data)
}

// Load parses and validates a YAML catalog. Every declared item type must
// have exactly one policy per priority; when item_types is omitted the types
// referenced by the policies are used.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse policy catalog yaml: %w", err)
	}
	if len(file.Policies) == 0 {
		return nil, fmt.Errorf("%w: no policies defined", ErrInvalidPolicy)
	}

	c := &Catalog{byKey: make(map[Key]domain.SLAPolicy, len(file.Policies))}
	for i, entry := range file.Policies {
		p, err := entry.toPolicy()
		if err != nil {
			return nil, fmt.Errorf("%w: policy #%d (%s): %v", ErrInvalidPolicy, i+1, entry.ID, err)
		}
		key := Key{ItemType: p.ItemType, Priority: p.Priority}
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("%w: duplicate policy for %s", ErrInvalidPolicy, key)
		}
		c.byKey[key] = p
		c.ordered = append(c.ordered, p)
	}

	types := file.ItemTypes
	if len(types) == 0 {
		types = distinctTypes(c.ordered)
	}
	seen := make(map[string]bool)
	for _, raw := range types {
		t := normalizeType(raw)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		c.itemTypes = append(c.itemTypes, t)
	}

	var missing []string
	for _, t := range c.itemTypes {
		for _, prio := range domain.Priorities {
			if _, ok := c.byKey[Key{ItemType: t, Priority: prio}]; !ok {
				missing = append(missing, Key{ItemType: t, Priority: prio}.String())
			}
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing policies for %s", ErrInvalidPolicy, strings.Join(missing, ", "))
	}
	for _, p := range c.ordered {
		if !seen[p.ItemType] {
			return nil, fmt.Errorf("%w: policy %s uses undeclared item type %s", ErrInvalidPolicy, p.ID, p.ItemType)
		}
	}
	return c, nil
}

func (e policyEntry) toPolicy() (domain.SLAPolicy, error) {
	itemType := normalizeType(e.ItemType)
	if itemType == "" {
		return domain.SLAPolicy{}, fmt.Errorf("item_type is required")
	}
	prio, err := domain.ParsePriority(e.Priority)
	if err != nil {
		return domain.SLAPolicy{}, err
	}
	if e.TargetResolutionDays <= 0 {
		return domain.SLAPolicy{}, fmt.Errorf("target_resolution_days must be > 0, got %d", e.TargetResolutionDays)
	}
	if e.WarningThresholdPercent < 0 || e.WarningThresholdPercent >= e.EscalationThresholdPercent {
		return domain.SLAPolicy{}, fmt.Errorf("warning_threshold_percent %.1f must be >= 0 and below escalation_threshold_percent %.1f",
			e.WarningThresholdPercent, e.EscalationThresholdPercent)
	}
	if e.EscalationThresholdPercent > 100 {
		return domain.SLAPolicy{}, fmt.Errorf("escalation_threshold_percent must be <= 100, got %.1f", e.EscalationThresholdPercent)
	}
	id := strings.TrimSpace(e.ID)
	if id == "" {
		id = fmt.Sprintf("sla-%s-%s", strings.ToLower(itemType), strings.ToLower(string(prio)))
	}
	return domain.SLAPolicy{
		ID:                         id,
		ItemType:                   itemType,
		Priority:                   prio,
		TargetResolutionDays:       e.TargetResolutionDays,
		WarningThresholdPercent:    e.WarningThresholdPercent,
		EscalationThresholdPercent: e.EscalationThresholdPercent,
		Description:                strings.TrimSpace(e.Description),
	}, nil
}

// Lookup returns the unique policy for an item type and priority, or a
// *PolicyNotFoundError.
func (c *Catalog) Lookup(itemType string, prio domain.Priority) (domain.SLAPolicy, error) {
	key := Key{ItemType: normalizeType(itemType), Priority: prio}
	p, ok := c.byKey[key]
	if !ok {
		return domain.SLAPolicy{}, &PolicyNotFoundError{ItemType: itemType, Priority: prio}
	}
	return p, nil
}

// ItemTypes returns the declared item types in catalog order.
func (c *Catalog) ItemTypes() []string {
	out := make([]string, len(c.itemTypes))
	copy(out, c.itemTypes)
	return out
}

func (c *Catalog) Policies() []domain.SLAPolicy {
	out := make([]domain.SLAPolicy, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}

func normalizeType(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func distinctTypes(policies []domain.SLAPolicy) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range policies {
		if seen[p.ItemType] {
			continue
		}
		seen[p.ItemType] = true
		out = append(out, p.ItemType)
	}
	return out
}
