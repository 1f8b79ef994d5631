package activity_test

import (
	"context"
	"testing"

	"github.com/rpggio/workdesk/internal/domain/activity"
	"github.com/rpggio/workdesk/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestActivityService_RecordAndRecent(t *testing.T) {
	ctx := context.Background()
	workspaceID := "ws1"

	repo := &mocks.ActivityRepository{}
	entry := &activity.Entry{
		Operation: "create",
		Resource:  "companies",
		Outcome:   activity.OutcomeSynced,
		Message:   "Company created",
	}

	repo.On("Log", ctx, workspaceID, entry).Return(nil)
	repo.On("List", ctx, workspaceID, activity.ListOptions{Limit: activity.DefaultLimit}).Return([]activity.Entry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.Record(ctx, workspaceID, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.Recent(ctx, workspaceID, activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_RecordInvalid(t *testing.T) {
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	require.ErrorIs(t, svc.Record(context.Background(), "ws1", nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Record(context.Background(), "ws1", &activity.Entry{Operation: "create"}), activity.ErrInvalidInput)
	repo.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything)
}
