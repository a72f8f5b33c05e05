package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edusphere-dev/groupwork-api/internal/models"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
)

type fakeGroupRepo struct {
	members []models.GroupMember
	phases  []models.ProjectPhase
}

func (f *fakeGroupRepo) ListActiveMembers(ctx context.Context, groupID uint) ([]models.GroupMember, error) {
	return f.members, nil
}

func (f *fakeGroupRepo) ListPhasesForProject(ctx context.Context, projectID uint) ([]models.ProjectPhase, error) {
	return f.phases, nil
}

func (f *fakeGroupRepo) GetPhase(ctx context.Context, phaseID uint) (models.ProjectPhase, error) {
	for _, phase := range f.phases {
		if phase.ID == phaseID {
			return phase, nil
		}
	}
	return models.ProjectPhase{}, gorm.ErrRecordNotFound
}

type fakeTaskRepo struct {
	tasks          map[uint]models.Task
	statusUpdates  map[uint]string
	attemptUpdates map[uint]int
}

func newFakeTaskRepo(tasks ...models.Task) *fakeTaskRepo {
	repo := &fakeTaskRepo{
		tasks:          make(map[uint]models.Task),
		statusUpdates:  make(map[uint]string),
		attemptUpdates: make(map[uint]int),
	}
	for _, task := range tasks {
		repo.tasks[task.ID] = task
	}
	return repo
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, id uint) (models.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return models.Task{}, gorm.ErrRecordNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, error) {
	result := make([]models.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		result = append(result, task)
	}
	return result, nil
}

func (f *fakeTaskRepo) ListForPhase(ctx context.Context, phaseID uint) ([]models.Task, error) {
	result := make([]models.Task, 0)
	for id := uint(1); id <= uint(len(f.tasks))+100; id++ {
		task, ok := f.tasks[id]
		if ok && task.PhaseID == phaseID {
			result = append(result, task)
		}
	}
	return result, nil
}

func (f *fakeTaskRepo) Create(ctx context.Context, task *models.Task) error {
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, task *models.Task) error {
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	task := f.tasks[id]
	task.Status = status
	f.tasks[id] = task
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeTaskRepo) UpdateAttempts(ctx context.Context, id uint, attempts int) error {
	task := f.tasks[id]
	task.CurrentAttempts = attempts
	f.tasks[id] = task
	f.attemptUpdates[id] = attempts
	return nil
}

type fakeSubmissionRepo struct {
	submissions   []models.TaskSubmission
	listErr       error
	perStudentErr map[uint]error
	nextID        uint
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.TaskSubmission, error) {
	for _, submission := range f.submissions {
		if submission.ID == id {
			return submission, nil
		}
	}
	return models.TaskSubmission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.TaskSubmission, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if err := f.perStudentErr[studentID]; err != nil {
		return nil, err
	}
	result := make([]models.TaskSubmission, 0)
	for _, submission := range f.submissions {
		if submission.TaskID == taskID && submission.SubmittedBy == studentID {
			result = append(result, submission)
		}
	}
	return result, nil
}

func (f *fakeSubmissionRepo) ListByTask(ctx context.Context, taskID uint) ([]models.TaskSubmission, error) {
	result := make([]models.TaskSubmission, 0)
	for _, submission := range f.submissions {
		if submission.TaskID == taskID {
			result = append(result, submission)
		}
	}
	return result, nil
}

func (f *fakeSubmissionRepo) CountByTaskAndStudent(ctx context.Context, taskID, studentID uint) (int64, error) {
	listed, _ := f.ListByTaskAndStudent(ctx, taskID, studentID)
	return int64(len(listed)), nil
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.TaskSubmission) error {
	f.nextID++
	submission.ID = f.nextID
	f.submissions = append(f.submissions, *submission)
	return nil
}

func (f *fakeSubmissionRepo) Update(ctx context.Context, submission *models.TaskSubmission) error {
	for i := range f.submissions {
		if f.submissions[i].ID == submission.ID {
			f.submissions[i] = *submission
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeRevisionRepo struct {
	revisions []models.RevisionSubmission
	nextID    uint
}

func (f *fakeRevisionRepo) GetByID(ctx context.Context, id uint) (models.RevisionSubmission, error) {
	for _, revision := range f.revisions {
		if revision.ID == id {
			return revision, nil
		}
	}
	return models.RevisionSubmission{}, gorm.ErrRecordNotFound
}

func (f *fakeRevisionRepo) ListByTaskAndStudent(ctx context.Context, taskID, studentID uint) ([]models.RevisionSubmission, error) {
	result := make([]models.RevisionSubmission, 0)
	for _, revision := range f.revisions {
		if revision.TaskID == taskID && revision.SubmittedBy == studentID {
			result = append(result, revision)
		}
	}
	return result, nil
}

func (f *fakeRevisionRepo) ListByTask(ctx context.Context, taskID uint) ([]models.RevisionSubmission, error) {
	result := make([]models.RevisionSubmission, 0)
	for _, revision := range f.revisions {
		if revision.TaskID == taskID {
			result = append(result, revision)
		}
	}
	return result, nil
}

func (f *fakeRevisionRepo) CountByOriginal(ctx context.Context, originalSubmissionID uint) (int64, error) {
	var count int64
	for _, revision := range f.revisions {
		if revision.OriginalSubmissionID == originalSubmissionID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRevisionRepo) Create(ctx context.Context, revision *models.RevisionSubmission) error {
	f.nextID++
	revision.ID = f.nextID
	f.revisions = append(f.revisions, *revision)
	return nil
}

func (f *fakeRevisionRepo) Update(ctx context.Context, revision *models.RevisionSubmission) error {
	for i := range f.revisions {
		if f.revisions[i].ID == revision.ID {
			f.revisions[i] = *revision
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeFrozenRepo struct {
	inserted  []models.FrozenTaskSubmission
	upserted  []models.FrozenTaskSubmission
	insertErr map[uint]error
}

func (f *fakeFrozenRepo) Insert(ctx context.Context, record *models.FrozenTaskSubmission) error {
	if err := f.insertErr[record.TaskID]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, *record)
	return nil
}

func (f *fakeFrozenRepo) Upsert(ctx context.Context, record *models.FrozenTaskSubmission) error {
	if err := f.insertErr[record.TaskID]; err != nil {
		return err
	}
	for i := range f.upserted {
		existing := f.upserted[i]
		if existing.TaskID == record.TaskID && existing.StudentID == record.StudentID &&
			existing.PhaseID == record.PhaseID && existing.GroupID == record.GroupID {
			f.upserted[i] = *record
			return nil
		}
	}
	f.upserted = append(f.upserted, *record)
	return nil
}

func (f *fakeFrozenRepo) ListByPhaseAndGroup(ctx context.Context, phaseID, groupID uint) ([]models.FrozenTaskSubmission, error) {
	result := make([]models.FrozenTaskSubmission, 0)
	for _, record := range append(f.inserted, f.upserted...) {
		if record.PhaseID == phaseID && record.GroupID == groupID {
			result = append(result, record)
		}
	}
	return result, nil
}

type fakeActivityRecorder struct {
	entries []ActivityEntry
}

func (f *fakeActivityRecorder) Record(ctx context.Context, entry ActivityEntry) (models.ActivityLog, error) {
	f.entries = append(f.entries, entry)
	return models.ActivityLog{}, nil
}

func (f *fakeActivityRecorder) ListRecent(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return nil, 0, nil
}

type fakeEventPublisher struct {
	events []string
}

func (f *fakeEventPublisher) Publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	f.events = append(f.events, eventType)
}

func TestFreezePhaseSnapshotsEveryMemberTask(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	groups := &fakeGroupRepo{
		members: []models.GroupMember{
			{ID: 1, GroupID: 5, StudentID: 3, IsActive: true},
			{ID: 2, GroupID: 5, StudentID: 4, IsActive: true},
		},
	}
	tasks := newFakeTaskRepo(
		models.Task{ID: 1, PhaseID: 8, AssignedTo: 3, Title: "Research"},
		models.Task{ID: 2, PhaseID: 8, AssignedTo: 4, Title: "Design"},
	)
	submissions := &fakeSubmissionRepo{
		submissions: []models.TaskSubmission{
			{ID: 1, TaskID: 1, SubmittedBy: 3, AttemptNumber: 1, Status: models.SubmissionStatusApproved, SubmittedAt: base},
		},
	}
	frozen := &fakeFrozenRepo{}
	activity := &fakeActivityRecorder{}
	events := &fakeEventPublisher{}

	svc := NewFreezeService(groups, tasks, submissions, &fakeRevisionRepo{}, frozen, activity, events, FreezeModeAppend, testLogger())

	report, err := svc.FreezePhase(context.Background(), 8, 5, 9)
	require.NoError(t, err)
	require.NotEmpty(t, report.BatchID)
	require.Equal(t, 2, report.TotalFrozen)
	require.Zero(t, report.TotalSkipped)
	require.Zero(t, report.TotalFailed)

	require.Len(t, frozen.inserted, 2)
	require.Equal(t, models.SnapshotApprovedOriginal, frozen.inserted[0].SubmissionType)
	// The second member never submitted; a placeholder row is still written.
	require.Equal(t, models.SnapshotAssignedNoSubmission, frozen.inserted[1].SubmissionType)
	require.Equal(t, models.PlaceholderAssignedNoSubmission, frozen.inserted[1].SubmissionText)

	require.Len(t, activity.entries, 1)
	require.Equal(t, "phase.frozen", activity.entries[0].Action)
	require.Equal(t, []string{EventFreezeCompleted}, events.events)
}

func TestFreezePhaseSkipsTasksAssignedOutsideGroup(t *testing.T) {
	groups := &fakeGroupRepo{
		members: []models.GroupMember{{ID: 1, GroupID: 5, StudentID: 3, IsActive: true}},
	}
	tasks := newFakeTaskRepo(
		models.Task{ID: 1, PhaseID: 8, AssignedTo: 3},
		models.Task{ID: 2, PhaseID: 8, AssignedTo: 99},
	)
	frozen := &fakeFrozenRepo{}

	svc := NewFreezeService(groups, tasks, &fakeSubmissionRepo{}, &fakeRevisionRepo{}, frozen, &fakeActivityRecorder{}, &fakeEventPublisher{}, FreezeModeAppend, testLogger())

	report, err := svc.FreezePhase(context.Background(), 8, 5, 9)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalFrozen)
	require.Equal(t, 1, report.TotalSkipped)
	require.Len(t, frozen.inserted, 1)
	require.Equal(t, uint(1), frozen.inserted[0].TaskID)
}

func TestFreezePhaseContinuesAfterTaskFailure(t *testing.T) {
	groups := &fakeGroupRepo{
		members: []models.GroupMember{
			{ID: 1, GroupID: 5, StudentID: 3, IsActive: true},
			{ID: 2, GroupID: 5, StudentID: 4, IsActive: true},
		},
	}
	tasks := newFakeTaskRepo(
		models.Task{ID: 1, PhaseID: 8, AssignedTo: 3},
		models.Task{ID: 2, PhaseID: 8, AssignedTo: 4},
	)
	frozen := &fakeFrozenRepo{
		insertErr: map[uint]error{1: errors.New("disk full")},
	}

	svc := NewFreezeService(groups, tasks, &fakeSubmissionRepo{}, &fakeRevisionRepo{}, frozen, &fakeActivityRecorder{}, &fakeEventPublisher{}, FreezeModeAppend, testLogger())

	report, err := svc.FreezePhase(context.Background(), 8, 5, 9)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalFailed)
	require.Equal(t, 1, report.TotalFrozen)
	require.Len(t, frozen.inserted, 1)
	require.Equal(t, uint(2), frozen.inserted[0].TaskID)
}

func TestFreezeProjectCoversAllPhases(t *testing.T) {
	groups := &fakeGroupRepo{
		members: []models.GroupMember{{ID: 1, GroupID: 5, StudentID: 3, IsActive: true}},
		phases: []models.ProjectPhase{
			{ID: 8, ProjectID: 2, PhaseNumber: 1},
			{ID: 9, ProjectID: 2, PhaseNumber: 2},
		},
	}
	tasks := newFakeTaskRepo(
		models.Task{ID: 1, PhaseID: 8, AssignedTo: 3},
		models.Task{ID: 2, PhaseID: 9, AssignedTo: 3},
	)
	frozen := &fakeFrozenRepo{}
	activity := &fakeActivityRecorder{}

	svc := NewFreezeService(groups, tasks, &fakeSubmissionRepo{}, &fakeRevisionRepo{}, frozen, activity, &fakeEventPublisher{}, FreezeModeAppend, testLogger())

	report, err := svc.FreezeProject(context.Background(), 2, 5, 9)
	require.NoError(t, err)
	require.Len(t, report.Phases, 2)
	require.Equal(t, 2, report.TotalFrozen)

	// Every frozen row carries the run's batch id.
	for _, record := range frozen.inserted {
		require.Equal(t, report.BatchID, record.FreezeBatchID)
	}

	require.Len(t, activity.entries, 1)
	require.Equal(t, "project.frozen", activity.entries[0].Action)
}

func TestFreezeProjectWithoutPhases(t *testing.T) {
	svc := NewFreezeService(&fakeGroupRepo{}, newFakeTaskRepo(), &fakeSubmissionRepo{}, &fakeRevisionRepo{}, &fakeFrozenRepo{}, &fakeActivityRecorder{}, &fakeEventPublisher{}, FreezeModeAppend, testLogger())

	_, err := svc.FreezeProject(context.Background(), 2, 5, 9)
	require.ErrorIs(t, err, ErrProjectHasNoPhases)
}

func TestFreezeUpsertModeKeepsOneRowPerScope(t *testing.T) {
	groups := &fakeGroupRepo{
		members: []models.GroupMember{{ID: 1, GroupID: 5, StudentID: 3, IsActive: true}},
	}
	tasks := newFakeTaskRepo(models.Task{ID: 1, PhaseID: 8, AssignedTo: 3})
	frozen := &fakeFrozenRepo{}

	svc := NewFreezeService(groups, tasks, &fakeSubmissionRepo{}, &fakeRevisionRepo{}, frozen, &fakeActivityRecorder{}, &fakeEventPublisher{}, FreezeModeUpsert, testLogger())

	_, err := svc.FreezePhase(context.Background(), 8, 5, 9)
	require.NoError(t, err)
	report, err := svc.FreezePhase(context.Background(), 8, 5, 9)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalFrozen)

	require.Empty(t, frozen.inserted)
	require.Len(t, frozen.upserted, 1)
}
