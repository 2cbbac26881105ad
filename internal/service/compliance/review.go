package compliance

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/errors"
	"github.com/solapay/compliance-engine/internal/metrics"
)

// ReviewService resolves checks the pipeline routed to manual review. Domain
// transition rules guarantee a check is resolved at most once; the service
// adds persistence and the review queue.
type ReviewService struct {
	checks CheckRepository
	logger *zap.Logger
}

func NewReviewService(checks CheckRepository, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{checks: checks, logger: logger}
}

// PendingReviews lists an organization's checks awaiting an analyst decision
func (s *ReviewService) PendingReviews(ctx context.Context, organizationID string, limit int) ([]*compliance.Check, error) {
	if organizationID == "" {
		return nil, errors.NewValidationError("EMPTY_ORGANIZATION_ID", "organization id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.checks.ListPendingReview(ctx, organizationID, limit)
}

// Approve resolves a review-status check as approved
func (s *ReviewService) Approve(ctx context.Context, checkID uuid.UUID, reviewerID, notes string) (*compliance.Check, error) {
	return s.resolve(ctx, checkID, "approve", func(c *compliance.Check) error {
		return c.Approve(reviewerID, notes)
	})
}

// Reject resolves a review-status check as rejected, with a mandatory reason
func (s *ReviewService) Reject(ctx context.Context, checkID uuid.UUID, reviewerID, reason string) (*compliance.Check, error) {
	return s.resolve(ctx, checkID, "reject", func(c *compliance.Check) error {
		return c.Reject(reviewerID, reason)
	})
}

func (s *ReviewService) resolve(ctx context.Context, checkID uuid.UUID, decision string, transition func(*compliance.Check) error) (*compliance.Check, error) {
	check, err := s.checks.GetByID(ctx, checkID)
	if err != nil {
		return nil, err
	}

	if err := transition(check); err != nil {
		return nil, err
	}

	if err := s.checks.Update(ctx, check); err != nil {
		return nil, errors.NewInternalError("persisting review decision").WithCause(err)
	}

	metrics.ManualReviews.WithLabelValues(decision).Inc()
	s.logger.Info("manual review resolved",
		zap.String("check_id", check.ID.String()),
		zap.String("decision", decision),
		zap.String("reviewer_id", check.ReviewedBy),
	)
	return check, nil
}
