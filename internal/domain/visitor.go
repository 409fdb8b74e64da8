package domain

import "time"

// Visit is one tracked page view from the public site.
type Visit struct {
	ID          string    `bson:"_id"`
	VisitorHash string    `bson:"visitorHash"`
	Path        string    `bson:"path"`
	Referrer    string    `bson:"referrer,omitempty"`
	Country     string    `bson:"country,omitempty"`
	Browser     string    `bson:"browser"`
	OS          string    `bson:"os"`
	Device      string    `bson:"device"`
	At          time.Time `bson:"at"`
}
