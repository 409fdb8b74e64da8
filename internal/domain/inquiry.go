package domain

import "time"

// InquiryStatus enumerates contact-form lifecycle states. Any state may follow any other.
type InquiryStatus string

const (
	InquiryStatusNew     InquiryStatus = "new"
	InquiryStatusRead    InquiryStatus = "read"
	InquiryStatusReplied InquiryStatus = "replied"
)

// Valid reports whether s is a known status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryStatusNew, InquiryStatusRead, InquiryStatusReplied:
		return true
	}
	return false
}

// InquiryStatuses lists statuses in display order.
var InquiryStatuses = []InquiryStatus{InquiryStatusNew, InquiryStatusRead, InquiryStatusReplied}

// Inquiry is a customer contact-form submission.
type Inquiry struct {
	ID            string                `bson:"_id"`
	Name          string                `bson:"name"`
	Email         string                `bson:"email"`
	Phone         string                `bson:"phone,omitempty"`
	Subject       string                `bson:"subject,omitempty"`
	Message       string                `bson:"message"`
	Status        InquiryStatus         `bson:"status"`
	Replies       []InquiryReply        `bson:"replies"`
	StatusHistory []InquiryStatusChange `bson:"statusHistory"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

// MessageCount counts the original message plus every reply.
func (i *Inquiry) MessageCount() int {
	return len(i.Replies) + 1
}

// InquiryReply is an outgoing answer appended to the thread.
type InquiryReply struct {
	Subject  string    `bson:"subject"`
	Message  string    `bson:"message"`
	FromName string    `bson:"fromName"`
	At       time.Time `bson:"at"`
	Note     string    `bson:"note,omitempty"`
}

// InquiryStatusChange is an audit entry for a status update.
type InquiryStatusChange struct {
	From InquiryStatus `bson:"from"`
	To   InquiryStatus `bson:"to"`
	By   string        `bson:"by"`
	At   time.Time     `bson:"at"`
}
