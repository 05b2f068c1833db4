// Package events defines the domain events published after team and workflow changes commit.
package events

import (
	"time"

	"github.com/dukex/fuzzie/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every domain event.
const Topic = "fuzzie.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TeamCreatedEvent       EventType = "team.created"
	TeamUpdatedEvent       EventType = "team.updated"
	TeamDeletedEvent       EventType = "team.deleted"
	TeamMemberInvitedEvent EventType = "team.member.invited"
	TeamMemberRemovedEvent EventType = "team.member.removed"

	WorkflowCreatedEvent   EventType = "workflow.created"
	WorkflowUpdatedEvent   EventType = "workflow.updated"
	WorkflowDeletedEvent   EventType = "workflow.deleted"
	WorkflowSharedEvent    EventType = "workflow.shared"
	WorkflowClonedEvent    EventType = "workflow.cloned"
	WorkflowPublishedEvent EventType = "workflow.published"
)

// Types lists every event type in declaration order.
func Types() []EventType {
	return []EventType{
		TeamCreatedEvent, TeamUpdatedEvent, TeamDeletedEvent, TeamMemberInvitedEvent, TeamMemberRemovedEvent,
		WorkflowCreatedEvent, WorkflowUpdatedEvent, WorkflowDeletedEvent, WorkflowSharedEvent,
		WorkflowClonedEvent, WorkflowPublishedEvent,
	}
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
}

func NewBaseEvent(eventType EventType, actorID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		ActorID:   actorID,
	}
}

func (b BaseEvent) GetType() EventType {
	return b.Type
}

type TeamChanged struct {
	BaseEvent

	TeamID string `json:"team_id"`
	Name   string `json:"name,omitempty"`
}

func NewTeamChanged(eventType EventType, actorID string, team *models.Team) *TeamChanged {
	return &TeamChanged{
		BaseEvent: NewBaseEvent(eventType, actorID),
		TeamID:    team.ID,
		Name:      team.Name,
	}
}

type MemberChanged struct {
	BaseEvent

	TeamID   string      `json:"team_id"`
	MemberID string      `json:"member_id"`
	UserID   string      `json:"user_id"`
	Role     models.Role `json:"role"`
}

func NewMemberChanged(eventType EventType, actorID string, member *models.TeamMember) *MemberChanged {
	return &MemberChanged{
		BaseEvent: NewBaseEvent(eventType, actorID),
		TeamID:    member.TeamID,
		MemberID:  member.ID,
		UserID:    member.UserID,
		Role:      member.Role,
	}
}

type WorkflowChanged struct {
	BaseEvent

	WorkflowID string            `json:"workflow_id"`
	OwnerID    string            `json:"owner_id"`
	TeamID     *string           `json:"team_id,omitempty"`
	Visibility models.Visibility `json:"visibility"`
	Published  bool              `json:"published"`

	// SourceID is set on workflow.cloned.
	SourceID string `json:"source_id,omitempty"`
}

func NewWorkflowChanged(eventType EventType, actorID string, workflow *models.Workflow) *WorkflowChanged {
	return &WorkflowChanged{
		BaseEvent:  NewBaseEvent(eventType, actorID),
		WorkflowID: workflow.ID,
		OwnerID:    workflow.OwnerID,
		TeamID:     workflow.TeamID,
		Visibility: workflow.Visibility,
		Published:  workflow.Published,
	}
}

// New returns an empty event value to decode a payload of eventType into, or nil.
func New(eventType EventType) any {
	switch eventType {
	case TeamCreatedEvent, TeamUpdatedEvent, TeamDeletedEvent:
		return &TeamChanged{}
	case TeamMemberInvitedEvent, TeamMemberRemovedEvent:
		return &MemberChanged{}
	case WorkflowCreatedEvent, WorkflowUpdatedEvent, WorkflowDeletedEvent,
		WorkflowSharedEvent, WorkflowClonedEvent, WorkflowPublishedEvent:
		return &WorkflowChanged{}
	default:
		return nil
	}
}
