// Package sla is the SLA intelligence engine. Every operation is a pure
// function of the work-item snapshot it is given plus the immutable policy
// catalog and parameters captured at construction.
package sla

import (
	"errors"
	"fmt"
	"time"

	"slaintel/internal/policy"
)

// ErrNoCandidates is returned by SuggestAssignment when the owner list is empty.
var ErrNoCandidates = errors.New("no candidate owners")

type Engine struct {
	catalog *policy.Catalog
	params  Params
	now     func() time.Time
}

type Option func(*Engine)

// WithClock overrides the time source used for "today" in predictions,
// alert timestamps and forecast start dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func NewEngine(catalog *policy.Catalog, params Params, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("policy catalog is required")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine params: %w", err)
	}
	e := &Engine{catalog: catalog, params: params.clone(), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns a copy of the parameters the engine was built with.
func (e *Engine) Params() Params {
	return e.params.clone()
}

func (e *Engine) today() time.Time {
	now := e.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
