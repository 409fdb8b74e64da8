package dto

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/service"
)

// SubscriberRequest carries one address.
type SubscriberRequest struct {
	Email string `json:"email"`
}

// EmailsRequest carries many addresses.
type EmailsRequest struct {
	Emails []string `json:"emails"`
}

// SubscriberResponse is a subscriber with its derived lock flag.
type SubscriberResponse struct {
	Email     string                  `json:"email"`
	AddedAt   time.Time               `json:"addedAt"`
	AddedBy   string                  `json:"addedBy,omitempty"`
	StaffName string                  `json:"staffName,omitempty"`
	Source    domain.SubscriberSource `json:"source"`
	Locked    bool                    `json:"locked"`
}

// NewSubscriberResponse maps a subscriber view.
func NewSubscriberResponse(v service.SubscriberView) SubscriberResponse {
	return SubscriberResponse{
		Email:     v.Email,
		AddedAt:   v.AddedAt,
		AddedBy:   v.AddedBy,
		StaffName: v.StaffName,
		Source:    v.Source,
		Locked:    v.Locked,
	}
}

// SubscriberListResponse is the GET /api/subscribers body.
type SubscriberListResponse struct {
	Subscribers []SubscriberResponse `json:"subscribers"`
	Total       int64                `json:"total"`
}

// NewSubscriberListResponse maps a page.
func NewSubscriberListResponse(page *service.SubscriberPage) SubscriberListResponse {
	out := SubscriberListResponse{Subscribers: make([]SubscriberResponse, 0, len(page.Items)), Total: page.Total}
	for _, v := range page.Items {
		out.Subscribers = append(out.Subscribers, NewSubscriberResponse(v))
	}
	return out
}
