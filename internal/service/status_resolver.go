package service

import (
	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// ResolveTaskStatus derives the single display status of a task from its
// grouped attempts. Rules are evaluated in order, first match wins:
//
//  1. any approved submission anywhere in the history -> completed
//  2. most recent group has a pending revision -> to_revise
//  3. most recent group needs a new revision -> to_revise
//  4. most recent group is pending -> to_revise when the task was already
//     flagged for revision (a pending resubmission must not clear the
//     revision flag until explicitly approved), else pending_review
//  5. otherwise the stored task status stands
//
// Rule 4 keeps a task visible in the student's revision queue while their
// resubmission sits unreviewed.
func ResolveTaskStatus(task models.Task, groups []dto.AttemptGroup, all []dto.SubmissionView) string {
	for _, submission := range all {
		if models.IsApprovedStatus(submission.Status) {
			return models.TaskStatusCompleted
		}
	}

	if len(groups) == 0 {
		return task.Status
	}

	latest := groups[0]

	if latest.HasPendingRevision {
		return models.TaskStatusToRevise
	}

	if latest.NeedsNewRevision {
		return models.TaskStatusToRevise
	}

	if latest.LatestStatus == models.SubmissionStatusPending {
		if task.Status == models.TaskStatusToRevise {
			return models.TaskStatusToRevise
		}
		return models.TaskStatusPendingReview
	}

	return task.Status
}
