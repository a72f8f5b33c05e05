package service

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// SnapshotChoice is the outcome of snapshot selection for one (task, student)
// pair: at most one submission, tagged with how it was chosen.
type SnapshotChoice struct {
	Original   *models.TaskSubmission
	Revision   *models.RevisionSubmission
	Type       string
	IsRevision bool
}

// SnapshotSelector picks the single submission to freeze for grading. The
// priority is fixed: approved revision, then latest revision, then approved
// original, then latest original. Once any revision exists it always wins
// over originals, approved or not.
type SnapshotSelector struct {
	logger zerolog.Logger
}

// NewSnapshotSelector constructs a selector.
func NewSnapshotSelector(logger zerolog.Logger) *SnapshotSelector {
	return &SnapshotSelector{
		logger: logger.With().Str("component", "snapshot_selector").Logger(),
	}
}

// Select applies the freeze priority over a student's submissions for one
// task. Inputs must be pre-filtered to the task and student; ordering is
// normalised here. Revisions whose original submission cannot be resolved
// are treated as if they did not exist.
func (s *SnapshotSelector) Select(task models.Task, studentID uint, originals []models.TaskSubmission, revisions []models.RevisionSubmission) SnapshotChoice {
	orderedOriginals := sortedNewestFirst(originals)
	orderedRevisions := s.resolvable(task, studentID, sortedRevisionsNewestFirst(revisions), orderedOriginals)

	if len(orderedRevisions) > 0 {
		for i := range orderedRevisions {
			if models.IsApprovedStatus(orderedRevisions[i].Status) {
				return SnapshotChoice{
					Revision:   &orderedRevisions[i],
					Type:       models.SnapshotApprovedRevision,
					IsRevision: true,
				}
			}
		}

		return SnapshotChoice{
			Revision:   &orderedRevisions[0],
			Type:       models.SnapshotLatestRevision,
			IsRevision: true,
		}
	}

	if len(orderedOriginals) > 0 {
		for i := range orderedOriginals {
			if models.IsApprovedStatus(orderedOriginals[i].Status) {
				return SnapshotChoice{
					Original: &orderedOriginals[i],
					Type:     models.SnapshotApprovedOriginal,
				}
			}
		}

		return SnapshotChoice{
			Original: &orderedOriginals[0],
			Type:     models.SnapshotLatestOriginal,
		}
	}

	return SnapshotChoice{Type: models.SnapshotAssignedNoSubmission}
}

// resolvable drops revisions whose original-submission reference does not
// resolve to a submission of the same task and student, logging a diagnostic
// instead of failing the selection.
func (s *SnapshotSelector) resolvable(task models.Task, studentID uint, revisions []models.RevisionSubmission, originals []models.TaskSubmission) []models.RevisionSubmission {
	known := make(map[uint]struct{}, len(originals))
	for _, original := range originals {
		known[original.ID] = struct{}{}
	}

	valid := make([]models.RevisionSubmission, 0, len(revisions))
	for _, revision := range revisions {
		if _, ok := known[revision.OriginalSubmissionID]; !ok {
			s.logger.Warn().
				Uint("task_id", task.ID).
				Uint("student_id", studentID).
				Uint("revision_id", revision.ID).
				Uint("original_submission_id", revision.OriginalSubmissionID).
				Msg("revision references a missing original submission, skipping")
			continue
		}
		valid = append(valid, revision)
	}

	return valid
}

// BuildFrozenRecord materialises the immutable snapshot row for a selection.
// Task title and description are copied so later edits cannot change graded
// history; file references are copied verbatim as opaque strings.
func BuildFrozenRecord(task models.Task, phaseID, groupID, studentID, leaderID uint, batchID string, choice SnapshotChoice, frozenAt time.Time) models.FrozenTaskSubmission {
	record := models.FrozenTaskSubmission{
		TaskID:          task.ID,
		PhaseID:         phaseID,
		GroupID:         groupID,
		StudentID:       studentID,
		TaskTitle:       task.Title,
		TaskDescription: task.Description,
		FrozenAt:        frozenAt,
		FrozenBy:        leaderID,
		SubmissionType:  choice.Type,
		IsRevisionBased: choice.IsRevision,
		FreezeBatchID:   batchID,
	}
	record.SetFileURLs(nil)

	switch choice.Type {
	case models.SnapshotApprovedRevision, models.SnapshotLatestRevision:
		revision := choice.Revision
		record.OriginalSubmissionID = &revision.OriginalSubmissionID
		record.SubmissionText = revision.SubmissionText
		record.SetFileURLs(revision.FilePathList())
		submittedAt := revision.SubmittedAt
		record.OriginalSubmittedAt = &submittedAt
		record.AttemptNumber = revision.RevisionAttemptNumber
		if choice.Type == models.SnapshotApprovedRevision {
			record.OriginalStatus = models.SubmissionStatusApproved
		} else {
			record.OriginalStatus = revision.Status
		}

	case models.SnapshotApprovedOriginal, models.SnapshotLatestOriginal:
		original := choice.Original
		record.OriginalSubmissionID = &original.ID
		record.SubmissionText = original.SubmissionText
		record.SetFileURLs(original.FileURLList())
		submittedAt := original.SubmittedAt
		record.OriginalSubmittedAt = &submittedAt
		record.AttemptNumber = original.AttemptNumber
		if choice.Type == models.SnapshotApprovedOriginal {
			record.OriginalStatus = models.SubmissionStatusApproved
		} else {
			record.OriginalStatus = original.Status
		}

	case models.SnapshotAssignedNoSubmission:
		record.OriginalStatus = models.SnapshotAssignedNoSubmission
		record.SubmissionText = models.PlaceholderAssignedNoSubmission

	default:
		record.OriginalStatus = models.SnapshotNoSubmission
		record.SubmissionText = models.PlaceholderNoSubmission
	}

	return record
}

func sortedNewestFirst(submissions []models.TaskSubmission) []models.TaskSubmission {
	ordered := make([]models.TaskSubmission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.After(ordered[j].SubmittedAt)
	})
	return ordered
}

func sortedRevisionsNewestFirst(revisions []models.RevisionSubmission) []models.RevisionSubmission {
	ordered := make([]models.RevisionSubmission, len(revisions))
	copy(ordered, revisions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.After(ordered[j].SubmittedAt)
	})
	return ordered
}
