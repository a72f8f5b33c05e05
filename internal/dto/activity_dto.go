package dto

import (
	"time"

	"github.com/edusphere-dev/groupwork-api/internal/models"
)

// ActivityLogResponse serializes a single audit trail entry.
type ActivityLogResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewActivityLogResponse maps an activity log row to its response shape.
func NewActivityLogResponse(entry models.ActivityLog) ActivityLogResponse {
	return ActivityLogResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	}
}

// NewActivityLogResponseSlice maps a page of audit entries.
func NewActivityLogResponseSlice(entries []models.ActivityLog) []ActivityLogResponse {
	result := make([]ActivityLogResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, NewActivityLogResponse(entry))
	}
	return result
}
