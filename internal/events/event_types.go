package events

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// EventType enumerates supported event identifiers. Values double as activity log actions.
type EventType string

const (
	EventStaffLoggedIn        EventType = EventType(domain.ActionLogin)
	EventStaffCreated         EventType = EventType(domain.ActionStaffCreated)
	EventStaffUpdated         EventType = EventType(domain.ActionStaffUpdated)
	EventStaffDeleted         EventType = EventType(domain.ActionStaffDeleted)
	EventStaffPasswordReset   EventType = EventType(domain.ActionStaffPasswordReset)
	EventStaffResetLinkSent   EventType = EventType(domain.ActionStaffResetLinkSent)
	EventSubscriberAdded      EventType = EventType(domain.ActionSubscriberAdded)
	EventSubscriberDeleted    EventType = EventType(domain.ActionSubscriberDeleted)
	EventSubscribersImported  EventType = EventType(domain.ActionSubscribersImported)
	EventInquiryCreated       EventType = EventType(domain.ActionInquiryCreated)
	EventInquiryStatusChanged EventType = EventType(domain.ActionInquiryStatus)
	EventInquiryReplied       EventType = EventType(domain.ActionInquiryReplied)
	EventInquiryDeleted       EventType = EventType(domain.ActionInquiryDeleted)
	EventMediaCreated         EventType = EventType(domain.ActionMediaCreated)
	EventMediaUpdated         EventType = EventType(domain.ActionMediaUpdated)
	EventMediaDeleted         EventType = EventType(domain.ActionMediaDeleted)
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventStaffLoggedIn,
	EventStaffCreated,
	EventStaffUpdated,
	EventStaffDeleted,
	EventStaffPasswordReset,
	EventStaffResetLinkSent,
	EventSubscriberAdded,
	EventSubscriberDeleted,
	EventSubscribersImported,
	EventInquiryCreated,
	EventInquiryStatusChanged,
	EventInquiryReplied,
	EventInquiryDeleted,
	EventMediaCreated,
	EventMediaUpdated,
	EventMediaDeleted,
}

// Actor encapsulates actor metadata for an event. Zero value means the public site.
type Actor struct {
	StaffID string `json:"staff_id,omitempty"`
	Name    string `json:"name,omitempty"`
}

// ActorFrom builds an Actor from a staff account.
func ActorFrom(staff *domain.StaffMember) Actor {
	if staff == nil {
		return Actor{}
	}
	return Actor{StaffID: staff.ID, Name: staff.Name}
}

// Event represents a domain event emitted by services.
type Event struct {
	Type      EventType `json:"type"`
	Target    string    `json:"target"`
	Actor     Actor     `json:"actor"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// InquiryCreatedPayload carries what staff notifications need.
type InquiryCreatedPayload struct {
	Inquiry domain.Inquiry `json:"inquiry"`
}

// InquiryStatusChangedPayload payload.
type InquiryStatusChangedPayload struct {
	OldStatus domain.InquiryStatus `json:"old_status"`
	NewStatus domain.InquiryStatus `json:"new_status"`
}

// SubscribersImportedPayload summarizes a bulk add.
type SubscribersImportedPayload struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Invalid int `json:"invalid"`
}
