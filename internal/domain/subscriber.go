package domain

import "time"

// SubscriberSource records how an address entered the list.
type SubscriberSource string

const (
	SubscriberSourceSignup SubscriberSource = "signup"
	SubscriberSourceAdmin  SubscriberSource = "admin"
	SubscriberSourceImport SubscriberSource = "import"
	SubscriberSourceBulk   SubscriberSource = "bulk"
)

// Subscriber is a newsletter address. Email is the document key.
type Subscriber struct {
	Email     string           `bson:"_id"`
	AddedAt   time.Time        `bson:"addedAt"`
	AddedBy   string           `bson:"addedBy,omitempty"`
	StaffName string           `bson:"staffName,omitempty"`
	Source    SubscriberSource `bson:"source"`
}
