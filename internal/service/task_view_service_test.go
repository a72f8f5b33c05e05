package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

func TestTaskViewServiceResolvesStatusAndGroups(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tasks := newFakeTaskRepo(models.Task{
		ID:         1,
		AssignedTo: 3,
		Title:      "Research",
		Status:     models.TaskStatusPendingReview,
	})
	submissions := &fakeSubmissionRepo{
		submissions: []models.TaskSubmission{
			{ID: 1, TaskID: 1, SubmittedBy: 3, AttemptNumber: 1, Status: models.SubmissionStatusRevisionRequested, SubmittedAt: base},
		},
	}
	revisions := &fakeRevisionRepo{
		revisions: []models.RevisionSubmission{
			{ID: 10, TaskID: 1, SubmittedBy: 3, OriginalSubmissionID: 1, RevisionAttemptNumber: 1, Status: models.SubmissionStatusPending, SubmittedAt: base.Add(time.Hour)},
		},
	}

	svc := NewTaskViewService(tasks, submissions, revisions, nil, time.Minute, testLogger())

	view, err := svc.GetTaskView(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, "Research", view.Title)
	require.Equal(t, models.TaskStatusToRevise, view.Status)
	require.Len(t, view.GroupedSubmissions, 2)
	require.Len(t, view.FlattenedSubmissions, 2)
	require.False(t, view.ErrorProcessing)
}

func TestTaskViewServiceCachesResponses(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	tasks := newFakeTaskRepo(models.Task{ID: 1, AssignedTo: 3, Title: "Research", Status: models.TaskStatusPending})
	submissions := &fakeSubmissionRepo{}
	revisions := &fakeRevisionRepo{}

	svc := NewTaskViewService(tasks, submissions, revisions, redisClient, time.Minute, testLogger())

	first, err := svc.GetTaskView(context.Background(), 1, 3)
	require.NoError(t, err)
	require.True(t, mini.Exists("taskview:1:3"))

	// Mutate the store; the cached response must still be served.
	submissions.submissions = append(submissions.submissions, models.TaskSubmission{
		ID: 1, TaskID: 1, SubmittedBy: 3, Status: models.SubmissionStatusPending, SubmittedAt: time.Now(),
	})
	cached, err := svc.GetTaskView(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	// After invalidation the fresh history shows up.
	svc.InvalidateTaskView(context.Background(), 1, 3)
	refreshed, err := svc.GetTaskView(context.Background(), 1, 3)
	require.NoError(t, err)
	require.Len(t, refreshed.FlattenedSubmissions, 1)
}

func TestTaskViewServiceTaskNotFound(t *testing.T) {
	svc := NewTaskViewService(newFakeTaskRepo(), &fakeSubmissionRepo{}, &fakeRevisionRepo{}, nil, time.Minute, testLogger())

	_, err := svc.GetTaskView(context.Background(), 42, 3)
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestGetLatestStatusPrefersRevisions(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tasks := newFakeTaskRepo(models.Task{ID: 1, AssignedTo: 3, Status: models.TaskStatusToRevise})
	submissions := &fakeSubmissionRepo{
		submissions: []models.TaskSubmission{
			{ID: 1, TaskID: 1, SubmittedBy: 3, AttemptNumber: 1, Status: models.SubmissionStatusRevisionRequested, SubmittedAt: base},
		},
	}
	revisions := &fakeRevisionRepo{
		revisions: []models.RevisionSubmission{
			{ID: 10, TaskID: 1, SubmittedBy: 3, OriginalSubmissionID: 1, RevisionAttemptNumber: 1, Status: models.SubmissionStatusPending, SubmittedAt: base.Add(time.Hour)},
		},
	}

	svc := NewTaskViewService(tasks, submissions, revisions, nil, time.Minute, testLogger())

	status, err := svc.GetLatestStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusPending, status.Status)
	require.Equal(t, "revision_submission", status.Source)
	require.Equal(t, 1, status.Attempt)
}

func TestGetLatestStatusFallsBackToOriginalThenTask(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tasks := newFakeTaskRepo(models.Task{ID: 1, AssignedTo: 3, Status: models.TaskStatusInProgress})
	submissions := &fakeSubmissionRepo{
		submissions: []models.TaskSubmission{
			{ID: 1, TaskID: 1, SubmittedBy: 3, AttemptNumber: 2, Status: models.SubmissionStatusPending, SubmittedAt: base},
		},
	}

	svc := NewTaskViewService(tasks, submissions, &fakeRevisionRepo{}, nil, time.Minute, testLogger())

	status, err := svc.GetLatestStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "task_submission", status.Source)
	require.Equal(t, 2, status.Attempt)

	bare := NewTaskViewService(newFakeTaskRepo(models.Task{ID: 2, Status: models.TaskStatusInProgress}), &fakeSubmissionRepo{}, &fakeRevisionRepo{}, nil, time.Minute, testLogger())
	status, err = bare.GetLatestStatus(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusInProgress, status.Status)
	require.Equal(t, "task", status.Source)
	require.Nil(t, status.SubmittedAt)
}

func TestListPhaseTaskViewsIsolatesFailures(t *testing.T) {
	tasks := newFakeTaskRepo(
		models.Task{ID: 1, PhaseID: 8, AssignedTo: 3, Title: "Fine", Status: models.TaskStatusPending},
		models.Task{ID: 2, PhaseID: 8, AssignedTo: 4, Title: "Broken", Status: models.TaskStatusInProgress},
	)
	submissions := &fakeSubmissionRepo{perStudentErr: map[uint]error{4: context.DeadlineExceeded}}

	svc := NewTaskViewService(tasks, submissions, &fakeRevisionRepo{}, nil, time.Minute, testLogger())

	views, err := svc.ListPhaseTaskViews(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, views, 2)

	require.False(t, views[0].ErrorProcessing)
	require.True(t, views[1].ErrorProcessing)
	// The degraded record keeps the stored status untouched.
	require.Equal(t, models.TaskStatusInProgress, views[1].Status)
	require.Equal(t, "Broken", views[1].Title)
}
