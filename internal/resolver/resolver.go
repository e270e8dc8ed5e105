// Package resolver orchestrates one resolution request: read-through
// cache, candidate fan-in from the lookup collaborator, trust
// classification, decision rules, the confidence gate, and report
// assembly. Fields resolve independently and fail open: one field's
// failure never prevents the others from resolving.
package resolver

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garagedata/vehiclefacts/internal/cache"
	"github.com/garagedata/vehiclefacts/internal/gate"
	"github.com/garagedata/vehiclefacts/internal/model"
	"github.com/garagedata/vehiclefacts/internal/report"
	"github.com/garagedata/vehiclefacts/internal/rules"
	"github.com/garagedata/vehiclefacts/internal/store"
	"github.com/garagedata/vehiclefacts/internal/trust"
	"github.com/garagedata/vehiclefacts/pkg/lookup"
)

// Strategy recorded on reports produced by this resolver.
const StrategyGroundedSearch = "grounded_search"

// FieldRequest names one field to resolve and the rule archetype that
// governs it.
type FieldRequest struct {
	Name      string               `json:"name"`
	Archetype model.FieldArchetype `json:"archetype"`
	Required  bool                 `json:"required"`
}

// DefaultFields returns the standard field set for a full resolution.
func DefaultFields() []FieldRequest {
	return []FieldRequest{
		{Name: "curb_weight", Archetype: model.ArchetypeNumeric, Required: true},
		{Name: "aluminum_block", Archetype: model.ArchetypeBoolean, Required: true},
		{Name: "aluminum_rims", Archetype: model.ArchetypeConditional},
		{Name: "catalytic_converter_count", Archetype: model.ArchetypeCount},
	}
}

// Resolver runs resolution requests. Safe for concurrent use; each
// request works over its own candidates with no shared mutable state
// beyond the cache and store, which provide their own guarantees.
type Resolver struct {
	lookup        lookup.Client
	cache         cache.Store
	store         store.Store
	engine        *rules.Engine
	gateCfg       gate.Config
	maxConcurrent int
}

// Options configures a Resolver. Cache and Store are optional; Engine
// defaults to the built-in rule config.
type Options struct {
	Lookup        lookup.Client
	Cache         cache.Store
	Store         store.Store
	Engine        *rules.Engine
	Gate          gate.Config
	MaxConcurrent int
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	engine := opts.Engine
	if engine == nil {
		engine = rules.NewEngine(nil)
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Resolver{
		lookup:        opts.Lookup,
		cache:         opts.Cache,
		store:         opts.Store,
		engine:        engine,
		gateCfg:       opts.Gate,
		maxConcurrent: maxConcurrent,
	}
}

// Resolve produces a resolution report for the vehicle, serving from
// cache when a fresh entry exists. A cache hit short-circuits lookup,
// classification, and rules entirely.
func (r *Resolver) Resolve(ctx context.Context, key model.VehicleKey, fields []FieldRequest) (*model.ResolutionReport, error) {
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("resolver: cache read failed",
				zap.String("vehicle", key.String()),
				zap.Error(err),
			)
		} else if cached != nil {
			zap.L().Info("resolver: cache hit",
				zap.String("vehicle", key.String()),
				zap.String("outcome", string(cached.Outcome)),
			)
			return cached, nil
		}
	}

	runID := uuid.New().String()
	resolutions := make(map[string]model.FieldResolution, len(fields))
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)
	for _, fr := range fields {
		g.Go(func() error {
			res := r.resolveField(gCtx, key, fr)
			mu.Lock()
			resolutions[fr.Name] = res
			mu.Unlock()
			return nil
		})
	}
	// Field goroutines never return errors: failures become statuses.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var required []string
	for _, fr := range fields {
		if fr.Required {
			required = append(required, fr.Name)
		}
	}

	rep := report.Build(key, StrategyGroundedSearch, resolutions, required)
	rep.RunID = runID

	r.persist(ctx, runID, key, rep)

	if r.cache != nil {
		if err := r.cache.Put(ctx, key, rep); err != nil {
			zap.L().Warn("resolver: cache write failed",
				zap.String("vehicle", key.String()),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("resolver: resolution complete",
		zap.String("run_id", runID),
		zap.String("vehicle", key.String()),
		zap.String("outcome", string(rep.Outcome)),
		zap.Float64("overall_confidence", rep.OverallConfidence),
		zap.Int("fields_resolved", len(rep.FieldsResolved)),
	)
	return rep, nil
}

// resolveField runs the full pipeline for one field. Lookup failures
// and empty candidate sets surface as insufficient_data, never as
// errors.
func (r *Resolver) resolveField(ctx context.Context, key model.VehicleKey, fr FieldRequest) model.FieldResolution {
	candidates, err := r.lookup.FetchCandidates(ctx, key, fr.Name)
	if err != nil {
		zap.L().Warn("resolver: lookup failed",
			zap.String("vehicle", key.String()),
			zap.String("field", fr.Name),
			zap.Error(err),
		)
		return model.FieldResolution{
			FieldName:   fr.Name,
			Status:      model.StatusInsufficientData,
			RuleApplied: string(fr.Archetype),
			Evidence:    model.EvidenceScore{HighestTier: model.TierUnknown},
			Warnings:    []string{"lookup collaborator unavailable"},
		}
	}

	valid := candidates[:0]
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			// Malformed shape is an upstream defect: reject and log,
			// never abort the field.
			zap.L().Warn("resolver: rejected malformed candidate",
				zap.String("field", fr.Name),
				zap.String("source", c.SourceID),
				zap.Error(err),
			)
			continue
		}
		valid = append(valid, c)
	}

	valid = trust.ClassifyAll(valid)
	return r.engine.Resolve(fr.Name, fr.Archetype, valid)
}

// persist writes gate-passing fields to the durable store along with
// their audit resolutions. Store errors are logged and swallowed; the
// report is still returned to the caller.
func (r *Resolver) persist(ctx context.Context, runID string, key model.VehicleKey, rep *model.ResolutionReport) {
	if r.store == nil {
		return
	}
	for _, name := range rep.SortedFieldNames() {
		res := rep.Fields[name]
		if !gate.AllowPersist(res, r.gateCfg) {
			continue
		}
		if err := r.store.UpsertFieldValue(ctx, key, store.Flatten(res)); err != nil {
			zap.L().Error("resolver: field upsert failed",
				zap.String("field", name),
				zap.Error(err),
			)
			continue
		}
		if err := r.store.SaveAudit(ctx, runID, key, res); err != nil {
			zap.L().Error("resolver: audit write failed",
				zap.String("field", name),
				zap.Error(err),
			)
		}
	}
}
