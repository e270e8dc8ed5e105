// Package cache stores whole resolution reports keyed by vehicle
// identity, with differentiated TTLs for positive and negative
// outcomes. Caching is at report granularity only; there are no
// partial-field entries. Expired entries are treated as misses at read
// time — deletion is an external maintenance concern.
package cache

import (
	"context"
	"time"

	"github.com/garagedata/vehiclefacts/internal/model"
)

// TTLClass distinguishes long-lived positive entries from short-lived
// negative ones.
type TTLClass string

const (
	TTLPositive TTLClass = "positive"
	TTLNegative TTLClass = "negative"
)

// TTLConfig holds the two TTL durations. Negative entries are short so
// a known-unresolvable vehicle is retried before long, without
// hammering the lookup collaborator in the meantime.
type TTLConfig struct {
	Positive time.Duration
	Negative time.Duration
}

// DefaultTTLConfig returns the standard TTLs: 30 days positive, 6
// hours negative.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Positive: 30 * 24 * time.Hour,
		Negative: 6 * time.Hour,
	}
}

// ClassFor picks the TTL class from the report outcome. Partial and
// complete reports both carry at least one ok field, so they cache
// positively; failed reports cache negatively.
func ClassFor(rep *model.ResolutionReport) TTLClass {
	if rep.Outcome == model.OutcomeFailed {
		return TTLNegative
	}
	return TTLPositive
}

// For returns the duration for a TTL class.
func (c TTLConfig) For(class TTLClass) time.Duration {
	if class == TTLNegative {
		return c.Negative
	}
	return c.Positive
}

// Store is the narrow cache interface the resolver depends on. Get
// returns (nil, nil) on a miss — a miss is control flow, not an error.
// Put overwrites any existing entry for the key; overwrites are benign
// because the report is a deterministic function of its candidates.
// Delete drops the entry outright so the next resolution re-fetches.
type Store interface {
	Get(ctx context.Context, key model.VehicleKey) (*model.ResolutionReport, error)
	Put(ctx context.Context, key model.VehicleKey, rep *model.ResolutionReport) error
	Delete(ctx context.Context, key model.VehicleKey) error
	Close() error
}
