package service

import (
	"sort"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// GroupAttempts organises one task's submission history for a single student
// into ordered attempt units. Attempt numbers are recomputed from submission
// order rather than trusted from the stored field, so the displayed sequence
// stays contiguous even when rows were deleted. Each original submission
// yields one group carrying its revisions, and every revision additionally
// yields a standalone revision-attempt group so the client can address it
// on its own.
//
// The function is pure: identical input always produces identical output.
func GroupAttempts(originals []models.TaskSubmission, revisions []models.RevisionSubmission) []dto.AttemptGroup {
	ordered := make([]models.TaskSubmission, len(originals))
	copy(ordered, originals)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	groups := make([]dto.AttemptGroup, 0, len(ordered))

	for index, original := range ordered {
		attemptNumber := index + 1

		related := revisionsForOriginal(revisions, original.ID)

		views := make([]dto.SubmissionView, 0, len(related))
		for revIndex, revision := range related {
			views = append(views, dto.NewRevisionSubmissionView(revision, attemptNumber, revIndex+1))
		}

		originalView := dto.NewOriginalSubmissionView(original, attemptNumber)

		group := dto.AttemptGroup{
			AttemptNumber:      attemptNumber,
			OriginalSubmission: &originalView,
			Revisions:          views,
			LatestStatus:       original.Status,
			HasPendingRevision: hasRevisionWithStatus(related, models.SubmissionStatusPending),
			NeedsNewRevision: original.Status == models.SubmissionStatusRevisionRequested &&
				!hasRevisionWithStatus(related, models.SubmissionStatusPending),
		}
		if len(related) > 0 {
			group.LatestStatus = related[len(related)-1].Status
		}

		groups = append(groups, group)

		for revIndex, revision := range related {
			view := dto.NewRevisionSubmissionView(revision, attemptNumber, revIndex+1)
			groups = append(groups, dto.AttemptGroup{
				AttemptNumber:      attemptNumber,
				RevisionNumber:     revIndex + 1,
				IsRevisionAttempt:  true,
				OriginalSubmission: nil,
				Revisions:          []dto.SubmissionView{view},
				LatestStatus:       revision.Status,
				HasPendingRevision: revision.Status == models.SubmissionStatusPending,
				NeedsNewRevision:   revision.Status == models.SubmissionStatusRevisionRequested,
			})
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.AttemptNumber != b.AttemptNumber {
			return a.AttemptNumber > b.AttemptNumber
		}
		if a.IsRevisionAttempt != b.IsRevisionAttempt {
			return !a.IsRevisionAttempt
		}
		if a.IsRevisionAttempt && b.IsRevisionAttempt {
			return a.RevisionNumber > b.RevisionNumber
		}
		return false
	})

	return groups
}

// FlattenSubmissions produces the chronological flat list backing the legacy
// task_submissions field: every original and revision exactly once, oldest
// first.
func FlattenSubmissions(groups []dto.AttemptGroup) []dto.SubmissionView {
	flattened := make([]dto.SubmissionView, 0, len(groups))
	for _, group := range groups {
		if group.IsRevisionAttempt {
			continue
		}
		if group.OriginalSubmission != nil {
			flattened = append(flattened, *group.OriginalSubmission)
		}
		flattened = append(flattened, group.Revisions...)
	}

	sort.SliceStable(flattened, func(i, j int) bool {
		return flattened[i].SubmittedAt.Before(flattened[j].SubmittedAt)
	})

	return flattened
}

func revisionsForOriginal(revisions []models.RevisionSubmission, originalID uint) []models.RevisionSubmission {
	related := make([]models.RevisionSubmission, 0)
	for _, revision := range revisions {
		if revision.OriginalSubmissionID == originalID {
			related = append(related, revision)
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].SubmittedAt.Before(related[j].SubmittedAt)
	})

	return related
}

func hasRevisionWithStatus(revisions []models.RevisionSubmission, status string) bool {
	for _, revision := range revisions {
		if revision.Status == status {
			return true
		}
	}
	return false
}
