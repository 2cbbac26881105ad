package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solapay/compliance-engine/internal/domain/compliance"
	"github.com/solapay/compliance-engine/internal/domain/errors"
)

func reviewStateCheck() *compliance.Check {
	return &compliance.Check{
		ID:             uuid.New(),
		OrganizationID: "org-1",
		Status:         compliance.StatusReview,
		RiskLevel:      compliance.RiskLevelHigh,
		RiskScore:      80,
		CreatedAt:      time.Now(),
	}
}

func TestReviewApprove(t *testing.T) {
	check := reviewStateCheck()
	repo := new(mockCheckRepo)
	repo.On("GetByID", mock.Anything, check.ID).Return(check, nil)
	repo.On("Update", mock.Anything, check).Return(nil)

	svc := NewReviewService(repo, zap.NewNop())

	resolved, err := svc.Approve(context.Background(), check.ID, "analyst-1", "cleared after call")

	require.NoError(t, err)
	assert.Equal(t, compliance.StatusApproved, resolved.Status)
	assert.Equal(t, "analyst-1", resolved.ReviewedBy)
	repo.AssertExpectations(t)
}

func TestReviewReject(t *testing.T) {
	check := reviewStateCheck()
	repo := new(mockCheckRepo)
	repo.On("GetByID", mock.Anything, check.ID).Return(check, nil)
	repo.On("Update", mock.Anything, check).Return(nil)

	svc := NewReviewService(repo, zap.NewNop())

	resolved, err := svc.Reject(context.Background(), check.ID, "analyst-1", "sanctions hit confirmed")

	require.NoError(t, err)
	assert.Equal(t, compliance.StatusRejected, resolved.Status)
	assert.Equal(t, "sanctions hit confirmed", resolved.Reason)
}

func TestReviewApprove_NonReviewCheckConflicts(t *testing.T) {
	check := reviewStateCheck()
	check.Status = compliance.StatusApproved
	repo := new(mockCheckRepo)
	repo.On("GetByID", mock.Anything, check.ID).Return(check, nil)

	svc := NewReviewService(repo, zap.NewNop())

	_, err := svc.Approve(context.Background(), check.ID, "analyst-1", "")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConflict))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewReject_RequiresReason(t *testing.T) {
	check := reviewStateCheck()
	repo := new(mockCheckRepo)
	repo.On("GetByID", mock.Anything, check.ID).Return(check, nil)

	svc := NewReviewService(repo, zap.NewNop())

	_, err := svc.Reject(context.Background(), check.ID, "analyst-1", "")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReviewApprove_UnknownCheck(t *testing.T) {
	repo := new(mockCheckRepo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, errors.NewNotFoundError("compliance check"))

	svc := NewReviewService(repo, zap.NewNop())

	_, err := svc.Approve(context.Background(), id, "analyst-1", "")

	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestReviewApprove_PersistFailure(t *testing.T) {
	check := reviewStateCheck()
	repo := new(mockCheckRepo)
	repo.On("GetByID", mock.Anything, check.ID).Return(check, nil)
	repo.On("Update", mock.Anything, check).Return(assert.AnError)

	svc := NewReviewService(repo, zap.NewNop())

	_, err := svc.Approve(context.Background(), check.ID, "analyst-1", "")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}

func TestPendingReviews(t *testing.T) {
	repo := new(mockCheckRepo)
	queue := []*compliance.Check{reviewStateCheck(), reviewStateCheck()}
	repo.On("ListPendingReview", mock.Anything, "org-1", 50).Return(queue, nil)

	svc := NewReviewService(repo, zap.NewNop())

	got, err := svc.PendingReviews(context.Background(), "org-1", 0)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPendingReviews_RequiresOrganization(t *testing.T) {
	svc := NewReviewService(new(mockCheckRepo), zap.NewNop())

	_, err := svc.PendingReviews(context.Background(), "", 10)

	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
