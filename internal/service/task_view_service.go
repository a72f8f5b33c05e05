package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/observability"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
)

// ErrTaskNotFound indicates the task id resolved to nothing.
var ErrTaskNotFound = errors.New("task not found")

// TaskViewService renders tasks with their resolved status and grouped
// submission history for dashboards.
type TaskViewService interface {
	GetTaskView(ctx context.Context, taskID, studentID uint) (dto.TaskViewResponse, error)
	GetLatestStatus(ctx context.Context, taskID uint) (dto.LatestStatusResponse, error)
	ListPhaseTaskViews(ctx context.Context, phaseID uint) ([]dto.TaskViewResponse, error)
	InvalidateTaskView(ctx context.Context, taskID, studentID uint)
}

type taskViewService struct {
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	revisions   repository.RevisionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewTaskViewService builds the task view aggregator. The cache client may
// be nil, in which case every read goes to the store.
func NewTaskViewService(tasks repository.TaskRepository, submissions repository.SubmissionRepository, revisions repository.RevisionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) TaskViewService {
	return &taskViewService{
		tasks:       tasks,
		submissions: submissions,
		revisions:   revisions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "task_view_service").Logger(),
	}
}

func (s *taskViewService) GetTaskView(ctx context.Context, taskID, studentID uint) (dto.TaskViewResponse, error) {
	cacheKey := taskViewCacheKey(taskID, studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.TaskViewResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.TaskViewCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("task_id", taskID).Msg("task view cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read task view cache")
		}
		observability.TaskViewCache().WithLabelValues("miss").Inc()
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TaskViewResponse{}, ErrTaskNotFound
		}
		return dto.TaskViewResponse{}, err
	}

	response, err := s.loadTaskView(ctx, task, studentID)
	if err != nil {
		return dto.TaskViewResponse{}, err
	}

	if s.cache != nil && !response.ErrorProcessing {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store task view cache")
			}
		}
	}

	return response, nil
}

func (s *taskViewService) GetLatestStatus(ctx context.Context, taskID uint) (dto.LatestStatusResponse, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LatestStatusResponse{}, ErrTaskNotFound
		}
		return dto.LatestStatusResponse{}, err
	}

	revisions, err := s.revisions.ListByTask(ctx, taskID)
	if err != nil {
		return dto.LatestStatusResponse{}, err
	}
	if len(revisions) > 0 {
		latest := revisions[0]
		submittedAt := latest.SubmittedAt
		return dto.LatestStatusResponse{
			Status:      latest.Status,
			Source:      "revision_submission",
			SubmittedAt: &submittedAt,
			Attempt:     latest.RevisionAttemptNumber,
		}, nil
	}

	originals, err := s.submissions.ListByTask(ctx, taskID)
	if err != nil {
		return dto.LatestStatusResponse{}, err
	}
	if len(originals) > 0 {
		latest := originals[0]
		submittedAt := latest.SubmittedAt
		return dto.LatestStatusResponse{
			Status:      latest.Status,
			Source:      "task_submission",
			SubmittedAt: &submittedAt,
			Attempt:     latest.AttemptNumber,
		}, nil
	}

	status := task.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	return dto.LatestStatusResponse{Status: status, Source: "task"}, nil
}

func (s *taskViewService) ListPhaseTaskViews(ctx context.Context, phaseID uint) ([]dto.TaskViewResponse, error) {
	tasks, err := s.tasks.ListForPhase(ctx, phaseID)
	if err != nil {
		return nil, err
	}

	views := make([]dto.TaskViewResponse, 0, len(tasks))
	for _, task := range tasks {
		view, err := s.loadTaskView(ctx, task, task.AssignedTo)
		if err != nil {
			// One malformed task history must never take down the whole
			// listing; the task is returned in a degraded state instead.
			s.logger.Error().Err(err).Uint("task_id", task.ID).Msg("failed to build task view, returning degraded record")
			view = degradedTaskView(task)
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *taskViewService) InvalidateTaskView(ctx context.Context, taskID, studentID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, taskViewCacheKey(taskID, studentID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("task_id", taskID).Msg("failed to invalidate task view cache")
	}
}

func (s *taskViewService) loadTaskView(ctx context.Context, task models.Task, studentID uint) (dto.TaskViewResponse, error) {
	originals, err := s.submissions.ListByTaskAndStudent(ctx, task.ID, studentID)
	if err != nil {
		return dto.TaskViewResponse{}, err
	}

	revisions, err := s.revisions.ListByTaskAndStudent(ctx, task.ID, studentID)
	if err != nil {
		return dto.TaskViewResponse{}, err
	}

	return buildTaskView(task, originals, revisions, s.logger), nil
}

// buildTaskView assembles the response, isolating grouping failures per
// task: a panic while processing one task's history yields a degraded
// record with the raw submissions passed through and the stored status
// untouched.
func buildTaskView(task models.Task, originals []models.TaskSubmission, revisions []models.RevisionSubmission, logger zerolog.Logger) (response dto.TaskViewResponse) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error().
				Uint("task_id", task.ID).
				Interface("panic", recovered).
				Msg("task history processing failed")
			response = degradedTaskView(task)
			for _, original := range originals {
				response.FlattenedSubmissions = append(response.FlattenedSubmissions, dto.NewOriginalSubmissionView(original, original.AttemptNumber))
			}
		}
	}()

	groups := GroupAttempts(originals, revisions)
	flattened := FlattenSubmissions(groups)

	return dto.TaskViewResponse{
		TaskID:               task.ID,
		Title:                task.Title,
		Status:               ResolveTaskStatus(task, groups, flattened),
		MaxAttempts:          task.MaxAttempts,
		CurrentAttempts:      task.CurrentAttempts,
		GroupedSubmissions:   groups,
		FlattenedSubmissions: flattened,
	}
}

func degradedTaskView(task models.Task) dto.TaskViewResponse {
	return dto.TaskViewResponse{
		TaskID:               task.ID,
		Title:                task.Title,
		Status:               task.Status,
		MaxAttempts:          task.MaxAttempts,
		CurrentAttempts:      task.CurrentAttempts,
		GroupedSubmissions:   []dto.AttemptGroup{},
		FlattenedSubmissions: []dto.SubmissionView{},
		ErrorProcessing:      true,
	}
}

func taskViewCacheKey(taskID, studentID uint) string {
	return fmt.Sprintf("taskview:%d:%d", taskID, studentID)
}
