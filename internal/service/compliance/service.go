// Package compliance implements the transaction decision pipeline: the
// ordered screening stages that turn a transaction request into an auditable
// approve, block, or review decision.
package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/customer"
	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/domain/organization"
	"github.com/solapay/compliance-engine/internal/domain/rules"
	"github.com/solapay/compliance-engine/internal/domain/values"
	"github.com/solapay/compliance-engine/internal/metrics"
	"github.com/solapay/compliance-engine/internal/service/risk"
)

// Pipeline stage names, recorded on the check in traversal order
const (
	StageKYCVerification      = "kyc_verification"
	StageSanctionsScreening   = "sanctions_screening"
	StageOrganizationSettings = "organization_settings"
	StageVelocityCheck        = "velocity_check"
	StageGeographicRisk       = "geographic_risk"
	StageRiskScore            = "risk_score"
)

// Risk scores assigned when a stage blocks outright
const (
	blockScoreKYC         = 80
	blockScoreSanctions   = 100
	blockScoreOrgSettings = 60
	blockScoreVelocity    = 70
	blockScoreGeographic  = 85
)

// strictCountryRiskBlock is the destination risk score at which organizations
// on the strict compliance level block instead of pricing the risk into the
// composite score.
const strictCountryRiskBlock = 75

// Config carries the pipeline thresholds
type Config struct {
	// SanctionsMatchThreshold is the minimum similarity recorded as a match.
	SanctionsMatchThreshold float64
	// SanctionsBlockThreshold is the similarity at which a match blocks
	// outright instead of routing to review.
	SanctionsBlockThreshold float64
	// ReviewRiskScore routes any check at or above it to manual review.
	ReviewRiskScore int
	// CheckTTL sets how long a decision stays valid; zero disables expiry.
	CheckTTL time.Duration
	// ScreeningSources selects the watchlists screened; empty means the
	// default regulatory set.
	ScreeningSources []values.ListSource
}

// DefaultConfig returns the standard pipeline thresholds
func DefaultConfig() Config {
	return Config{
		SanctionsMatchThreshold: 0.85,
		SanctionsBlockThreshold: 0.95,
		ReviewRiskScore:         75,
		CheckTTL:                24 * time.Hour,
	}
}

// CheckTransactionRequest describes one transaction to evaluate
type CheckTransactionRequest struct {
	OrganizationID     string                 `json:"organization_id" validate:"required"`
	CustomerID         string                 `json:"customer_id" validate:"required"`
	AccountID          string                 `json:"account_id,omitempty"`
	TransactionID      string                 `json:"transaction_id,omitempty"`
	Amount             decimal.Decimal        `json:"amount"`
	Currency           string                 `json:"currency" validate:"required,len=3,uppercase"`
	DestinationCountry string                 `json:"destination_country,omitempty" validate:"omitempty,len=2,uppercase"`
	PaymentMethod      string                 `json:"payment_method,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// Service is the compliance decision pipeline. All collaborators are injected
// so deployments and tests choose their own backends.
type Service struct {
	orgs       OrganizationStore
	customers  CustomerStore
	checks     CheckRepository
	screener   SanctionsScreener
	countries  CountryRiskAssessor
	velocity   VelocityChecker
	ruleEngine RuleEvaluator
	scorer     *risk.Scorer
	reporting  compliance.ReportingThresholds

	cfg      Config
	logger   *zap.Logger
	tracer   trace.Tracer
	validate *validator.Validate
}

func NewService(
	orgs OrganizationStore,
	customers CustomerStore,
	checks CheckRepository,
	screener SanctionsScreener,
	countries CountryRiskAssessor,
	velocity VelocityChecker,
	ruleEngine RuleEvaluator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SanctionsMatchThreshold <= 0 {
		cfg.SanctionsMatchThreshold = 0.85
	}
	if cfg.SanctionsBlockThreshold <= 0 {
		cfg.SanctionsBlockThreshold = 0.95
	}
	if cfg.ReviewRiskScore <= 0 {
		cfg.ReviewRiskScore = 75
	}
	if len(cfg.ScreeningSources) == 0 {
		cfg.ScreeningSources = values.DefaultScreeningSources()
	}
	return &Service{
		orgs:       orgs,
		customers:  customers,
		checks:     checks,
		screener:   screener,
		countries:  countries,
		velocity:   velocity,
		ruleEngine: ruleEngine,
		scorer:     risk.NewScorer(),
		reporting:  compliance.DefaultReportingThresholds(),
		cfg:        cfg,
		logger:     logger,
		tracer:     otel.Tracer("compliance-engine/service"),
		validate:   validator.New(),
	}
}

// EnsureApproved converts a non-approved decision into its typed error.
// Payment execution paths call it to gate fund movement on the check outcome.
func EnsureApproved(check *compliance.Check) error {
	if check == nil {
		return errors.NewInternalError("compliance check is missing")
	}
	switch check.Status {
	case compliance.StatusApproved:
		return nil
	case compliance.StatusReview:
		return errors.NewTransactionBlockedError("transaction is held for manual review")
	case compliance.StatusBlocked, compliance.StatusRejected:
		if check.Details["blocked_stage"] == StageKYCVerification {
			return errors.NewKYCRequiredError(check.Reason)
		}
		return errors.NewTransactionBlockedError(check.Reason)
	default:
		return errors.NewTransactionBlockedError("compliance check is not approved")
	}
}

// runState accumulates one pipeline run. The check record is assembled here
// and only becomes visible to callers and storage once the run is complete.
type runState struct {
	req      CheckTransactionRequest
	org      *organization.Organization
	customer *customer.Customer

	evaluated []string
	triggered []string
	matches   []compliance.SanctionMatch
	details   map[string]interface{}

	countryRisk      int
	velocityExceeded bool
	dailyCount       int
	ruleImpact       int

	needsReview   bool
	reviewReasons []string
}

func (st *runState) stage(name string) {
	st.evaluated = append(st.evaluated, name)
}

func (st *runState) flagReview(reason string) {
	st.needsReview = true
	st.reviewReasons = append(st.reviewReasons, reason)
}

// CheckTransaction runs the full decision pipeline for one transaction. The
// returned check is in a terminal automated state: approved, blocked, or
// review. A blocked decision is persisted and then returned together with its
// typed error (KYCRequiredError when KYC blocked, TransactionBlockedError
// otherwise) so authorization callers fail without inspecting the record.
// Review outcomes return without error; EnsureApproved gates fund movement on
// them. Infrastructure failures inside the pipeline fail closed rather than
// letting a transaction through unevaluated.
func (s *Service) CheckTransaction(ctx context.Context, req CheckTransactionRequest) (*compliance.Check, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.check_transaction",
		trace.WithAttributes(
			attribute.String("organization.id", req.OrganizationID),
			attribute.String("currency", req.Currency),
		))
	defer span.End()

	start := time.Now()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(ctx, req.OrganizationID)
	if err != nil {
		return nil, err
	}
	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if cust.OrganizationID != org.ID {
		return nil, errors.NewNotFoundError("customer")
	}

	st := &runState{
		req:      req,
		org:      org,
		customer: cust,
		details:  make(map[string]interface{}),
	}

	check, err := s.runPipeline(ctx, st)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		// The caller is gone; do not persist a decision nobody received.
		return nil, err
	}
	if err := s.checks.Create(ctx, check); err != nil {
		span.RecordError(err)
		return nil, errors.NewComplianceError("persisting compliance check").WithCause(err)
	}

	metrics.ChecksTotal.WithLabelValues(string(check.Status)).Inc()
	metrics.CheckDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("check.status", string(check.Status)),
		attribute.Int("check.risk_score", check.RiskScore),
	)

	s.logger.Info("compliance check completed",
		zap.String("check_id", check.ID.String()),
		zap.String("organization_id", check.OrganizationID),
		zap.String("status", string(check.Status)),
		zap.Int("risk_score", check.RiskScore),
		zap.Duration("duration", time.Since(start)),
	)

	if check.Status == compliance.StatusBlocked {
		return check, EnsureApproved(check)
	}
	return check, nil
}

func (s *Service) validateRequest(req CheckTransactionRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return errors.NewValidationError("INVALID_CHECK_REQUEST", err.Error())
	}
	if !req.Amount.IsPositive() {
		return errors.NewValidationError("INVALID_AMOUNT", "amount must be positive")
	}
	return nil
}

func (s *Service) runPipeline(ctx context.Context, st *runState) (*compliance.Check, error) {
	type stageFunc struct {
		name string
		run  func(context.Context, *runState) (*compliance.Check, error)
	}

	stages := []stageFunc{
		{StageKYCVerification, s.stageKYC},
		{StageSanctionsScreening, s.stageSanctions},
		{StageOrganizationSettings, s.stageOrgSettings},
		{StageVelocityCheck, s.stageVelocity},
		{StageGeographicRisk, s.stageGeographic},
	}

	for _, stage := range stages {
		sctx, span := s.tracer.Start(ctx, "compliance.stage."+stage.name)
		blocked, err := stage.run(sctx, st)
		span.End()
		if err != nil {
			return nil, err
		}
		if blocked != nil {
			metrics.StageBlocks.WithLabelValues(stage.name).Inc()
			return blocked, nil
		}
	}

	rctx, span := s.tracer.Start(ctx, "compliance.stage.custom_rules")
	blocked, err := s.stageRules(rctx, st)
	span.End()
	if err != nil {
		return nil, err
	}
	if blocked != nil {
		metrics.StageBlocks.WithLabelValues("custom_rules").Inc()
		return blocked, nil
	}

	return s.resolve(st), nil
}

func (s *Service) stageKYC(_ context.Context, st *runState) (*compliance.Check, error) {
	st.stage(StageKYCVerification)

	if !st.org.IsVerified() {
		return s.blocked(st, StageKYCVerification, blockScoreKYC,
			"organization KYB verification is required"), nil
	}
	if !st.customer.IsActive() {
		return s.blocked(st, StageKYCVerification, blockScoreKYC,
			"customer is not active"), nil
	}
	if !st.customer.IsKYCVerified() {
		return s.blocked(st, StageKYCVerification, blockScoreKYC,
			"customer KYC verification is required"), nil
	}
	return nil, nil
}

func (s *Service) stageSanctions(_ context.Context, st *runState) (*compliance.Check, error) {
	if !st.org.Settings.EnableSanctionsScreening {
		return nil, nil
	}
	st.stage(StageSanctionsScreening)

	st.matches = s.screener.Screen(st.customer.FullName(),
		s.cfg.ScreeningSources, s.cfg.SanctionsMatchThreshold)
	if len(st.matches) == 0 {
		return nil, nil
	}

	if compliance.MaxMatchScore(st.matches) >= s.cfg.SanctionsBlockThreshold {
		return s.blocked(st, StageSanctionsScreening, blockScoreSanctions,
			"sanctions screening produced a confirmed match"), nil
	}

	st.flagReview("possible sanctions match requires analyst confirmation")
	return nil, nil
}

func (s *Service) stageOrgSettings(_ context.Context, st *runState) (*compliance.Check, error) {
	st.stage(StageOrganizationSettings)
	settings := st.org.Settings

	if !st.org.CanOperate() {
		return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
			"organization is not permitted to transact"), nil
	}
	if !settings.CurrencyAllowed(st.req.Currency) {
		return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
			fmt.Sprintf("currency %s is not allowed for this organization", st.req.Currency)), nil
	}
	if max := settings.MaxTransactionAmount; max != nil && st.req.Amount.GreaterThan(*max) {
		return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
			fmt.Sprintf("amount exceeds the organization limit of %s", max.String())), nil
	}
	if st.req.DestinationCountry != "" {
		if settings.CountryRestricted(st.req.DestinationCountry) {
			return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
				fmt.Sprintf("transactions to %s are blocked by organization policy",
					st.req.DestinationCountry)), nil
		}
		if !settings.AllowInternational {
			return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
				fmt.Sprintf("international transactions to %s are not enabled for this organization",
					st.req.DestinationCountry)), nil
		}
	}
	if st.req.PaymentMethod == "mobile_money" && !settings.AllowMobileMoney {
		return s.blocked(st, StageOrganizationSettings, blockScoreOrgSettings,
			"mobile money is not enabled for this organization"), nil
	}
	return nil, nil
}

func (s *Service) stageVelocity(ctx context.Context, st *runState) (*compliance.Check, error) {
	if !st.org.Settings.EnableVelocityMonitoring {
		return nil, nil
	}
	st.stage(StageVelocityCheck)

	vc, err := s.velocity.CheckDaily(ctx, st.org, st.customer.ID, st.req.Amount, time.Now())
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewComplianceError("velocity check failed").WithCause(err)
	}

	st.dailyCount = vc.TransactionCount
	st.details["velocity"] = vc

	if vc.LimitExceeded {
		st.velocityExceeded = true
		return s.blocked(st, StageVelocityCheck, blockScoreVelocity,
			velocityBlockReason(vc)), nil
	}
	return nil, nil
}

// velocityBlockReason names the specific limit the transaction would breach
func velocityBlockReason(vc *compliance.VelocityCheck) string {
	for _, name := range vc.ExceededLimits {
		switch {
		case name == compliance.VelocityLimitAmount && vc.Limits.AmountLimit != nil:
			return fmt.Sprintf("exceeds daily transaction amount limit of %s",
				vc.Limits.AmountLimit.String())
		case name == compliance.VelocityLimitCount && vc.Limits.CountLimit != nil:
			return fmt.Sprintf("exceeds daily transaction count limit of %d",
				*vc.Limits.CountLimit)
		}
	}
	return "daily transaction limit exceeded"
}

func (s *Service) stageGeographic(_ context.Context, st *runState) (*compliance.Check, error) {
	dest := st.req.DestinationCountry
	if dest == "" {
		return nil, nil
	}
	st.stage(StageGeographicRisk)

	if s.screener.ScreenCountry(dest) {
		return s.blocked(st, StageGeographicRisk, blockScoreGeographic,
			fmt.Sprintf("destination country %s is comprehensively sanctioned", dest)), nil
	}

	st.countryRisk = s.countries.Score(dest)
	st.details["country_risk"] = st.countryRisk

	// Strict organizations do not price elevated destination risk into the
	// composite: they block at the threshold and route lesser high-risk
	// corridors to an analyst.
	if st.org.Settings.ComplianceLevel == organization.ComplianceLevelStrict {
		if st.countryRisk >= strictCountryRiskBlock {
			return s.blocked(st, StageGeographicRisk, blockScoreGeographic,
				fmt.Sprintf("destination country %s risk score %d exceeds strict compliance policy",
					dest, st.countryRisk)), nil
		}
		if s.countries.IsHighRisk(dest) {
			st.flagReview(fmt.Sprintf("destination country %s is high risk", dest))
		}
	}
	return nil, nil
}

func (s *Service) stageRules(ctx context.Context, st *runState) (*compliance.Check, error) {
	txContext := s.ruleContext(st)
	// A nil rule set means every applicable rule is evaluated; organizations
	// that persist a rule set with stop_on_first_trigger supply it through
	// the rule management API, not the transaction path.
	results, err := s.ruleEngine.Evaluate(ctx, st.org.ID, st.customer.ID, txContext, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewComplianceError("rule evaluation failed").WithCause(err)
	}

	var blockedBy *rules.EvaluationResult
	for i, result := range results {
		st.evaluated = append(st.evaluated, result.RuleName)
		if !result.Triggered {
			continue
		}
		st.triggered = append(st.triggered, result.RuleName)
		st.ruleImpact += result.RiskScoreImpact

		switch result.Action {
		case rules.ActionBlock:
			if blockedBy == nil {
				blockedBy = &results[i]
			}
		case rules.ActionReview, rules.ActionRequireApproval:
			st.flagReview(result.RuleName)
		}
	}

	if blockedBy != nil {
		reason := blockedBy.Message
		if reason == "" {
			reason = "blocked by rule " + blockedBy.RuleName
		}
		score := blockedBy.RiskScoreImpact
		if score < blockScoreOrgSettings {
			score = blockScoreOrgSettings
		}
		return s.blocked(st, blockedBy.RuleName, score, reason), nil
	}
	return nil, nil
}

// ruleContext flattens the run state into the field map rule conditions
// evaluate against. Request metadata merges in last but cannot shadow the
// engine-computed fields.
func (s *Service) ruleContext(st *runState) map[string]interface{} {
	txContext := make(map[string]interface{}, len(st.req.Metadata)+8)
	for k, v := range st.req.Metadata {
		txContext[k] = v
	}
	txContext["amount"] = st.req.Amount.InexactFloat64()
	txContext["currency"] = st.req.Currency
	txContext["destination_country"] = st.req.DestinationCountry
	txContext["payment_method"] = st.req.PaymentMethod
	txContext["kyc_status"] = string(st.customer.KYCStatus)
	txContext["customer_status"] = string(st.customer.Status)
	txContext["country_risk"] = st.countryRisk
	txContext["daily_count"] = st.dailyCount
	return txContext
}

// resolve computes the composite risk score and lands the check in its final
// automated state.
func (s *Service) resolve(st *runState) *compliance.Check {
	st.stage(StageRiskScore)

	assessment := s.scorer.Assess(risk.ScoreInput{
		KYCVerified:      st.customer.IsKYCVerified(),
		SanctionsMatches: st.matches,
		Amount:           st.req.Amount,
		CountryRisk:      st.countryRisk,
		VelocityExceeded: st.velocityExceeded,
	})

	score := assessment.Score + st.ruleImpact
	if score > 100 {
		score = 100
	}

	factors := assessment.RiskFactors
	if score >= s.cfg.ReviewRiskScore {
		factors = append(factors, risk.FactorElevatedRiskScore)
	}
	st.details["risk_factors"] = factors
	st.details["risk_components"] = assessment.Factors

	check := s.newCheck(st, score)

	switch {
	case score >= s.cfg.ReviewRiskScore:
		check.Status = compliance.StatusReview
		check.RequiresManualReview = true
		check.Reason = "risk score requires manual review"
	case st.needsReview:
		check.Status = compliance.StatusReview
		check.RequiresManualReview = true
		check.Reason = st.reviewReasons[0]
	default:
		check.Status = compliance.StatusApproved
	}

	return check
}

// blocked builds a terminal blocked check for a stage hard stop
func (s *Service) blocked(st *runState, stage string, score int, reason string) *compliance.Check {
	check := s.newCheck(st, score)
	check.Status = compliance.StatusBlocked
	check.Reason = reason
	check.Details["blocked_stage"] = stage

	s.logger.Warn("transaction blocked",
		zap.String("organization_id", st.org.ID),
		zap.String("stage", stage),
		zap.String("reason", reason),
	)
	return check
}

func (s *Service) newCheck(st *runState, score int) *compliance.Check {
	now := time.Now().UTC()
	check := &compliance.Check{
		ID:               uuid.New(),
		OrganizationID:   st.org.ID,
		CustomerID:       st.customer.ID,
		AccountID:        st.req.AccountID,
		TransactionID:    st.req.TransactionID,
		RiskScore:        score,
		RiskLevel:        compliance.RiskLevelFromScore(score),
		RulesEvaluated:   st.evaluated,
		RulesTriggered:   st.triggered,
		SanctionsMatches: st.matches,
		Details:          st.details,
		Metadata:         st.req.Metadata,
		CreatedAt:        now,
	}
	check.Details["regulatory"] = map[string]bool{
		"ctr_required":    s.reporting.ShouldFileCTR(st.req.Amount),
		"sar_recommended": score >= s.reporting.SARRiskScore || len(st.matches) > 0,
	}
	if s.cfg.CheckTTL > 0 {
		expires := now.Add(s.cfg.CheckTTL)
		check.ExpiresAt = &expires
	}
	return check
}
