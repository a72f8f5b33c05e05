package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

func TestGroupRepositoryListActiveMembers(t *testing.T) {
	db := setupCourseworkTestDB(t, &models.GroupMember{})
	repo := NewGroupRepository(db)

	active := models.GroupMember{GroupID: 5, StudentID: 3, FullName: "Ana", IsActive: true}
	leader := models.GroupMember{GroupID: 5, StudentID: 4, FullName: "Ben", IsLeader: true, IsActive: true}
	left := models.GroupMember{GroupID: 5, StudentID: 6, FullName: "Cy"}
	other := models.GroupMember{GroupID: 9, StudentID: 7, FullName: "Dee", IsActive: true}

	require.NoError(t, db.Create(&active).Error)
	require.NoError(t, db.Create(&leader).Error)
	require.NoError(t, db.Create(&left).Error)
	require.NoError(t, db.Model(&models.GroupMember{}).Where("id = ?", left.ID).Update("is_active", false).Error)
	require.NoError(t, db.Create(&other).Error)

	members, err := repo.ListActiveMembers(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, member := range members {
		require.NotEqual(t, uint(6), member.StudentID)
	}
}

func TestGroupRepositoryListPhasesOrdered(t *testing.T) {
	db := setupCourseworkTestDB(t, &models.ProjectPhase{})
	repo := NewGroupRepository(db)

	require.NoError(t, db.Create(&models.ProjectPhase{ProjectID: 2, PhaseNumber: 2, Title: "Build"}).Error)
	require.NoError(t, db.Create(&models.ProjectPhase{ProjectID: 2, PhaseNumber: 1, Title: "Plan"}).Error)
	require.NoError(t, db.Create(&models.ProjectPhase{ProjectID: 3, PhaseNumber: 1, Title: "Elsewhere"}).Error)

	phases, err := repo.ListPhasesForProject(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, phases, 2)
	require.Equal(t, "Plan", phases[0].Title)
	require.Equal(t, "Build", phases[1].Title)
}

func TestFeedbackRepositoryListByKind(t *testing.T) {
	db := setupCourseworkTestDB(t, &models.TaskFeedback{})
	repo := NewFeedbackRepository(db)

	original := models.TaskFeedback{SubmissionID: 1, Kind: models.FeedbackKindOriginal, FeedbackText: "tighten the intro", AuthorID: 9, IsFromLeader: true}
	revision := models.TaskFeedback{SubmissionID: 1, Kind: models.FeedbackKindRevision, FeedbackText: "better", AuthorID: 9, IsFromLeader: true}
	other := models.TaskFeedback{SubmissionID: 2, Kind: models.FeedbackKindOriginal, FeedbackText: "unrelated", AuthorID: 9}

	require.NoError(t, repo.Create(context.Background(), &original))
	require.NoError(t, repo.Create(context.Background(), &revision))
	require.NoError(t, repo.Create(context.Background(), &other))

	listed, err := repo.ListBySubmission(context.Background(), 1, models.FeedbackKindOriginal)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "tighten the intro", listed[0].FeedbackText)

	all, err := repo.ListBySubmission(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}
