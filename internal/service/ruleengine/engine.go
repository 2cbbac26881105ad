// Package ruleengine loads, caches, and evaluates organization compliance
// rules for the custom-rules pipeline stage.
package ruleengine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/domain/rules"
	"github.com/solapay/compliance-engine/internal/infrastructure/cache"
	"github.com/solapay/compliance-engine/internal/metrics"
)

// Repository persists compliance rules. ListActive returns the enabled rules
// visible to an organization: its own plus global rules.
type Repository interface {
	ListActive(ctx context.Context, organizationID string) ([]*rules.Rule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*rules.Rule, error)
	Create(ctx context.Context, rule *rules.Rule) error
	Update(ctx context.Context, rule *rules.Rule) error
}

// Engine evaluates an organization's rules against transaction context.
// Loaded rule sets are cached per organization; any write through the engine
// invalidates that organization's cache entry.
type Engine struct {
	repo     Repository
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewEngine(repo Repository, c cache.Cache, cacheTTL time.Duration, logger *zap.Logger) *Engine {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if cacheTTL <= 0 {
		cacheTTL = cache.RuleCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, cache: c, cacheTTL: cacheTTL, logger: logger}
}

// ActiveRules returns the organization's active rules in evaluation order:
// ascending priority, rule ID as the tiebreak so equal-priority rules keep a
// stable order across loads.
func (e *Engine) ActiveRules(ctx context.Context, organizationID string) ([]*rules.Rule, error) {
	key := cache.RulesPrefix + organizationID

	var cached []*rules.Rule
	if err := e.cache.GetJSON(ctx, key, &cached); err == nil {
		metrics.RuleCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.RuleCache.WithLabelValues("miss").Inc()

	loaded, err := e.repo.ListActive(ctx, organizationID)
	if err != nil {
		return nil, errors.NewInternalError("loading compliance rules").WithCause(err)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		if loaded[i].Priority != loaded[j].Priority {
			return loaded[i].Priority < loaded[j].Priority
		}
		return loaded[i].ID.String() < loaded[j].ID.String()
	})

	if err := e.cache.SetJSON(ctx, key, loaded, e.cacheTTL); err != nil {
		// Serving uncached is fine; losing the write is not worth failing the check.
		e.logger.Warn("rule cache write failed",
			zap.String("organization_id", organizationID),
			zap.Error(err))
	}

	return loaded, nil
}

// Evaluate runs the organization's rules against the transaction context and
// returns one result per applicable rule. A nil set is the default behavior:
// every applicable rule is evaluated. When set.StopOnFirstTrigger is true,
// evaluation stops after the first triggered rule; untriggered results
// gathered up to that point are still returned.
func (e *Engine) Evaluate(ctx context.Context, organizationID, targetID string, txContext map[string]interface{}, set *rules.RuleSet) ([]rules.EvaluationResult, error) {
	active, err := e.ActiveRules(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	stopOnFirst := set != nil && set.StopOnFirstTrigger
	results := make([]rules.EvaluationResult, 0, len(active))

	for _, rule := range active {
		if !rule.ShouldApplyTo(targetID) {
			continue
		}

		triggered := rule.Evaluate(txContext)
		result := rules.EvaluationResult{
			RuleID:      rule.ID,
			RuleName:    rule.Name,
			Triggered:   triggered,
			EvaluatedAt: time.Now().UTC(),
		}
		if triggered {
			result.Action = rule.Action
			result.Severity = rule.Severity
			result.Message = rule.Message
			result.RiskScoreImpact = rule.RiskScoreImpact
			metrics.RuleTriggers.WithLabelValues(string(rule.Action)).Inc()

			e.logger.Info("compliance rule triggered",
				zap.String("organization_id", organizationID),
				zap.String("rule_id", rule.ID.String()),
				zap.String("rule_name", rule.Name),
				zap.String("action", string(rule.Action)),
			)
		}
		results = append(results, result)

		if triggered && stopOnFirst {
			break
		}
	}

	return results, nil
}

// CreateRule validates and persists a new rule, then invalidates the owning
// organization's cached rule set.
func (e *Engine) CreateRule(ctx context.Context, rule *rules.Rule) error {
	if rule == nil {
		return errors.NewValidationError("NIL_RULE", "rule is required")
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	if err := e.repo.Create(ctx, rule); err != nil {
		return errors.NewInternalError("creating compliance rule").WithCause(err)
	}

	e.invalidate(ctx, rule.OrganizationID)
	return nil
}

// UpdateRule validates and persists rule changes, then invalidates the owning
// organization's cached rule set.
func (e *Engine) UpdateRule(ctx context.Context, rule *rules.Rule) error {
	if rule == nil {
		return errors.NewValidationError("NIL_RULE", "rule is required")
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	rule.UpdatedAt = &now

	if err := e.repo.Update(ctx, rule); err != nil {
		return errors.NewInternalError("updating compliance rule").WithCause(err)
	}

	e.invalidate(ctx, rule.OrganizationID)
	return nil
}

// invalidate drops one organization's cached rule set. Writes to global
// rules reach already-cached organizations when their entries age out of the
// cache TTL.
func (e *Engine) invalidate(ctx context.Context, organizationID string) {
	if err := e.cache.Delete(ctx, cache.RulesPrefix+organizationID); err != nil {
		e.logger.Warn("rule cache invalidation failed",
			zap.String("organization_id", organizationID),
			zap.Error(err))
	}
}
