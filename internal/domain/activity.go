package domain

import "time"

// ActivityAction names an audited staff action.
type ActivityAction string

const (
	ActionLogin               ActivityAction = "auth.login"
	ActionStaffCreated        ActivityAction = "staff.created"
	ActionStaffUpdated        ActivityAction = "staff.updated"
	ActionStaffDeleted        ActivityAction = "staff.deleted"
	ActionStaffPasswordReset  ActivityAction = "staff.password_reset"
	ActionStaffResetLinkSent  ActivityAction = "staff.reset_link_sent"
	ActionSubscriberAdded     ActivityAction = "subscriber.added"
	ActionSubscriberDeleted   ActivityAction = "subscriber.deleted"
	ActionSubscribersImported ActivityAction = "subscriber.imported"
	ActionInquiryCreated      ActivityAction = "inquiry.created"
	ActionInquiryStatus       ActivityAction = "inquiry.status"
	ActionInquiryReplied      ActivityAction = "inquiry.replied"
	ActionInquiryDeleted      ActivityAction = "inquiry.deleted"
	ActionMediaCreated        ActivityAction = "media.created"
	ActionMediaUpdated        ActivityAction = "media.updated"
	ActionMediaDeleted        ActivityAction = "media.deleted"
)

// ActivityLog is an immutable audit trail entry.
type ActivityLog struct {
	ID        string         `bson:"_id"`
	ActorID   string         `bson:"actorId,omitempty"`
	ActorName string         `bson:"actorName,omitempty"`
	Action    ActivityAction `bson:"action"`
	Target    string         `bson:"target,omitempty"`
	Detail    string         `bson:"detail,omitempty"`
	At        time.Time      `bson:"at"`
}
