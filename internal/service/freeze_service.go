package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/observability"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
)

// Freeze write modes. Append keeps every run's rows as an audit trail;
// upsert keeps exactly one snapshot per (task, student, phase, group).
const (
	FreezeModeAppend = "append"
	FreezeModeUpsert = "upsert"
)

// ErrProjectHasNoPhases indicates the project id resolved to nothing freezable.
var ErrProjectHasNoPhases = errors.New("project has no phases")

// FreezeService locks group work for grading by snapshotting every member's
// best-qualifying submission. Runs are best-effort: individual task or phase
// failures are reported and logged but never abort the rest of the run.
type FreezeService interface {
	FreezeProject(ctx context.Context, projectID, groupID, leaderID uint) (dto.FreezeReport, error)
	FreezePhase(ctx context.Context, phaseID, groupID, leaderID uint) (dto.FreezeReport, error)
	ListFrozen(ctx context.Context, phaseID, groupID uint) ([]dto.FrozenSubmissionResponse, error)
}

type freezeService struct {
	groups      repository.GroupRepository
	tasks       repository.TaskRepository
	submissions repository.SubmissionRepository
	revisions   repository.RevisionRepository
	frozen      repository.FrozenSubmissionRepository
	selector    *SnapshotSelector
	activity    ActivityRecorder
	events      EventPublisher
	mode        string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewFreezeService constructs the freeze orchestrator. Mode must be one of
// FreezeModeAppend or FreezeModeUpsert; anything else falls back to upsert.
func NewFreezeService(
	groups repository.GroupRepository,
	tasks repository.TaskRepository,
	submissions repository.SubmissionRepository,
	revisions repository.RevisionRepository,
	frozen repository.FrozenSubmissionRepository,
	activity ActivityRecorder,
	events EventPublisher,
	mode string,
	logger zerolog.Logger,
) FreezeService {
	if mode != FreezeModeAppend {
		mode = FreezeModeUpsert
	}

	return &freezeService{
		groups:      groups,
		tasks:       tasks,
		submissions: submissions,
		revisions:   revisions,
		frozen:      frozen,
		selector:    NewSnapshotSelector(logger),
		activity:    activity,
		events:      events,
		mode:        mode,
		logger:      logger.With().Str("component", "freeze_service").Logger(),
		tracer:      otel.Tracer("github.com/edusphere-dev/groupwork-api/internal/service/freeze"),
		now:         time.Now,
	}
}

func (s *freezeService) FreezeProject(ctx context.Context, projectID, groupID, leaderID uint) (dto.FreezeReport, error) {
	ctx, span := s.tracer.Start(ctx, "freeze.project", trace.WithAttributes(
		attribute.Int64("freeze.project_id", int64(projectID)),
		attribute.Int64("freeze.group_id", int64(groupID)),
		attribute.Int64("freeze.leader_id", int64(leaderID)),
	))
	defer span.End()

	observability.FreezeRuns().WithLabelValues("project").Inc()

	phases, err := s.groups.ListPhasesForProject(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phase_listing_failed")
		return dto.FreezeReport{}, err
	}
	if len(phases) == 0 {
		span.SetStatus(codes.Error, "project_has_no_phases")
		return dto.FreezeReport{}, ErrProjectHasNoPhases
	}

	report := dto.FreezeReport{
		BatchID:   uuid.NewString(),
		ProjectID: projectID,
		StartedAt: s.now(),
	}

	// Phases are frozen sequentially so logging stays ordered and the store
	// is not hit with parallel writes for a single leader action.
	for _, phase := range phases {
		phaseReport, err := s.freezePhase(ctx, report.BatchID, phase.ID, groupID, leaderID)
		if err != nil {
			s.logger.Error().Err(err).
				Uint("phase_id", phase.ID).
				Int("phase_number", phase.PhaseNumber).
				Msg("phase freeze failed, continuing with remaining phases")
			phaseReport.Error = err.Error()
		}
		report.Merge(phaseReport)
	}

	report.FinishedAt = s.now()
	s.recordAndAnnounce(ctx, "project.frozen", "project", projectID, leaderID, report)

	span.SetAttributes(
		attribute.Int("freeze.total_frozen", report.TotalFrozen),
		attribute.Int("freeze.total_failed", report.TotalFailed),
	)

	return report, nil
}

func (s *freezeService) FreezePhase(ctx context.Context, phaseID, groupID, leaderID uint) (dto.FreezeReport, error) {
	ctx, span := s.tracer.Start(ctx, "freeze.phase", trace.WithAttributes(
		attribute.Int64("freeze.phase_id", int64(phaseID)),
		attribute.Int64("freeze.group_id", int64(groupID)),
		attribute.Int64("freeze.leader_id", int64(leaderID)),
	))
	defer span.End()

	observability.FreezeRuns().WithLabelValues("phase").Inc()

	report := dto.FreezeReport{
		BatchID:   uuid.NewString(),
		StartedAt: s.now(),
	}

	phaseReport, err := s.freezePhase(ctx, report.BatchID, phaseID, groupID, leaderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "phase_freeze_failed")
		return dto.FreezeReport{}, err
	}

	report.Merge(phaseReport)
	report.FinishedAt = s.now()
	s.recordAndAnnounce(ctx, "phase.frozen", "phase", phaseID, leaderID, report)

	return report, nil
}

func (s *freezeService) ListFrozen(ctx context.Context, phaseID, groupID uint) ([]dto.FrozenSubmissionResponse, error) {
	records, err := s.frozen.ListByPhaseAndGroup(ctx, phaseID, groupID)
	if err != nil {
		return nil, err
	}

	return dto.NewFrozenSubmissionResponseSlice(records), nil
}

// freezePhase snapshots every task of one phase. Only failures that prevent
// identifying the phase scope at all (member or task listing) surface as an
// error; per-task problems are counted and logged.
func (s *freezeService) freezePhase(ctx context.Context, batchID string, phaseID, groupID, leaderID uint) (dto.PhaseReport, error) {
	report := dto.PhaseReport{PhaseID: phaseID}

	members, err := s.groups.ListActiveMembers(ctx, groupID)
	if err != nil {
		return report, err
	}

	tasks, err := s.tasks.ListForPhase(ctx, phaseID)
	if err != nil {
		return report, err
	}

	membersByStudent := make(map[uint]models.GroupMember, len(members))
	for _, member := range members {
		membersByStudent[member.StudentID] = member
	}

	s.logger.Info().
		Uint("phase_id", phaseID).
		Int("members", len(members)).
		Int("tasks", len(tasks)).
		Str("batch_id", batchID).
		Msg("freezing phase task submissions")

	for _, task := range tasks {
		member, ok := membersByStudent[task.AssignedTo]
		if !ok {
			// Expected when membership changed after assignment.
			s.logger.Warn().
				Uint("task_id", task.ID).
				Uint("assigned_to", task.AssignedTo).
				Msg("task assigned outside the group, skipping")
			observability.FreezeTasks().WithLabelValues("skipped").Inc()
			report.Skipped++
			continue
		}

		if err := s.freezeTask(ctx, batchID, task, member, phaseID, groupID, leaderID); err != nil {
			s.logger.Error().Err(err).
				Uint("task_id", task.ID).
				Uint("student_id", member.StudentID).
				Msg("task freeze failed, continuing with remaining tasks")
			observability.FreezeTasks().WithLabelValues("failed").Inc()
			report.Failed++
			continue
		}

		observability.FreezeTasks().WithLabelValues("frozen").Inc()
		report.Frozen++
	}

	return report, nil
}

func (s *freezeService) freezeTask(ctx context.Context, batchID string, task models.Task, member models.GroupMember, phaseID, groupID, leaderID uint) error {
	originals, err := s.submissions.ListByTaskAndStudent(ctx, task.ID, member.StudentID)
	if err != nil {
		return err
	}

	revisions, err := s.revisions.ListByTaskAndStudent(ctx, task.ID, member.StudentID)
	if err != nil {
		return err
	}

	choice := s.selector.Select(task, member.StudentID, originals, revisions)
	record := BuildFrozenRecord(task, phaseID, groupID, member.StudentID, leaderID, batchID, choice, s.now())

	s.logger.Debug().
		Uint("task_id", task.ID).
		Uint("student_id", member.StudentID).
		Str("submission_type", choice.Type).
		Bool("is_revision_based", choice.IsRevision).
		Msg("freezing task submission")

	if s.mode == FreezeModeAppend {
		return s.frozen.Insert(ctx, &record)
	}
	return s.frozen.Upsert(ctx, &record)
}

func (s *freezeService) recordAndAnnounce(ctx context.Context, action, entityType string, entityID, leaderID uint, report dto.FreezeReport) {
	metadata := map[string]interface{}{
		"batch_id": report.BatchID,
		"frozen":   report.TotalFrozen,
		"skipped":  report.TotalSkipped,
		"failed":   report.TotalFailed,
	}

	if s.activity != nil {
		id := entityID
		if _, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    leaderID,
			ActorRole:  "leader",
			Action:     action,
			EntityType: entityType,
			EntityID:   &id,
			Metadata:   metadata,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record freeze activity")
		}
	}

	if s.events != nil {
		payload := map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"leader_id":   leaderID,
		}
		for key, value := range metadata {
			payload[key] = value
		}
		s.events.Publish(ctx, EventFreezeCompleted, payload)
	}
}
