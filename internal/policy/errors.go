package policy

import (
	"errors"
	"fmt"

	"slaintel/internal/domain"
)

// ErrPolicyNotFound is matched by every *PolicyNotFoundError via errors.Is.
var ErrPolicyNotFound = errors.New("sla policy not found")

// PolicyNotFoundError means the catalog has no policy for an item's
// (type, priority) pair. It is a configuration bug, never a silent default.
type PolicyNotFoundError struct {
	ItemType string
	Priority domain.Priority
}

func (e *PolicyNotFoundError) Error() string {
	return fmt.Sprintf("no SLA policy found for %s / %s", e.ItemType, e.Priority)
}

func (e *PolicyNotFoundError) Is(target error) bool {
	return target == ErrPolicyNotFound
}
