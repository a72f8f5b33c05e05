package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

func resolveFor(t *testing.T, task models.Task, originals []models.TaskSubmission, revisions []models.RevisionSubmission) string {
	t.Helper()
	groups := GroupAttempts(originals, revisions)
	return ResolveTaskStatus(task, groups, FlattenSubmissions(groups))
}

func TestResolveTaskStatusApprovedAnywhereWins(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusToRevise}

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusApproved, SubmittedAt: base},
		{ID: 2, TaskID: 1, Status: models.SubmissionStatusRevisionRequested, SubmittedAt: base.Add(time.Hour)},
	}

	require.Equal(t, models.TaskStatusCompleted, resolveFor(t, task, originals, nil))
}

func TestResolveTaskStatusLegacyAcceptedCountsAsApproved(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusPendingReview}

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusAccepted, SubmittedAt: base},
	}

	require.Equal(t, models.TaskStatusCompleted, resolveFor(t, task, originals, nil))
}

func TestResolveTaskStatusPendingRevisionMeansToRevise(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusPendingReview}

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusRevisionRequested, SubmittedAt: base},
	}
	revisions := []models.RevisionSubmission{
		{ID: 10, TaskID: 1, OriginalSubmissionID: 1, Status: models.SubmissionStatusPending, SubmittedAt: base.Add(time.Hour)},
	}

	require.Equal(t, models.TaskStatusToRevise, resolveFor(t, task, originals, revisions))
}

func TestResolveTaskStatusNeedsNewRevision(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusPendingReview}

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusRevisionRequested, SubmittedAt: base},
	}

	require.Equal(t, models.TaskStatusToRevise, resolveFor(t, task, originals, nil))
}

func TestResolveTaskStatusPendingIsStickyForRevisedTasks(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusPending, SubmittedAt: base},
	}

	// A pending submission on a task flagged for revision keeps it in the
	// revision queue until a reviewer approves it.
	flagged := models.Task{ID: 1, Status: models.TaskStatusToRevise}
	require.Equal(t, models.TaskStatusToRevise, resolveFor(t, flagged, originals, nil))

	// The same pending submission on an untouched task awaits review.
	fresh := models.Task{ID: 1, Status: models.TaskStatusInProgress}
	require.Equal(t, models.TaskStatusPendingReview, resolveFor(t, fresh, originals, nil))
}

func TestResolveTaskStatusNoSubmissionsKeepsStoredStatus(t *testing.T) {
	task := models.Task{ID: 1, Status: models.TaskStatusInProgress}
	require.Equal(t, models.TaskStatusInProgress, resolveFor(t, task, nil, nil))
}

func TestResolveTaskStatusFallsBackToStoredStatus(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	task := models.Task{ID: 1, Status: models.TaskStatusInProgress}

	originals := []models.TaskSubmission{
		{ID: 1, TaskID: 1, Status: models.SubmissionStatusRejected, SubmittedAt: base},
	}

	require.Equal(t, models.TaskStatusInProgress, resolveFor(t, task, originals, nil))
}
