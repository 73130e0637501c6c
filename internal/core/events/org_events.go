package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeManagerChanged = "user.manager_changed"
	EventTypeRoleChanged    = "user.role_changed"
	EventTypeStatusChanged  = "user.status_changed"
)

type ManagerChangedEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	OldManagerID *int64 `json:"old_manager_id,omitempty"`
	NewManagerID *int64 `json:"new_manager_id,omitempty"`
	ActorID      int64  `json:"actor_id"`
}

func NewManagerChangedEvent(userID int64, oldManagerID, newManagerID *int64, actorID int64) *ManagerChangedEvent {
	return &ManagerChangedEvent{
		BaseEvent: newBaseEvent(EventTypeManagerChanged, map[string]interface{}{
			"user_id":        userID,
			"old_manager_id": oldManagerID,
			"new_manager_id": newManagerID,
			"actor_id":       actorID,
		}),
		UserID:       userID,
		OldManagerID: oldManagerID,
		NewManagerID: newManagerID,
		ActorID:      actorID,
	}
}

type RoleChangedEvent struct {
	BaseEvent
	UserID    int64 `json:"user_id"`
	OldRoleID int64 `json:"old_role_id"`
	NewRoleID int64 `json:"new_role_id"`
	ActorID   int64 `json:"actor_id"`
}

func NewRoleChangedEvent(userID, oldRoleID, newRoleID, actorID int64) *RoleChangedEvent {
	return &RoleChangedEvent{
		BaseEvent: newBaseEvent(EventTypeRoleChanged, map[string]interface{}{
			"user_id":     userID,
			"old_role_id": oldRoleID,
			"new_role_id": newRoleID,
			"actor_id":    actorID,
		}),
		UserID:    userID,
		OldRoleID: oldRoleID,
		NewRoleID: newRoleID,
		ActorID:   actorID,
	}
}

type StatusChangedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ActorID   int64  `json:"actor_id"`
}

func NewStatusChangedEvent(userID int64, oldStatus, newStatus string, actorID int64) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseEvent: newBaseEvent(EventTypeStatusChanged, map[string]interface{}{
			"user_id":    userID,
			"old_status": oldStatus,
			"new_status": newStatus,
			"actor_id":   actorID,
		}),
		UserID:    userID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ActorID:   actorID,
	}
}

func newBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
