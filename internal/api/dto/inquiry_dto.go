package dto

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// InquiryStatusRequest payload.
type InquiryStatusRequest struct {
	Status domain.InquiryStatus `json:"status"`
}

// InquiryReplyRequest payload.
type InquiryReplyRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
	Note    string `json:"note"`
}

// InquiryReplyResponse is one entry of the reply thread.
type InquiryReplyResponse struct {
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	FromName string    `json:"fromName"`
	At       time.Time `json:"at"`
	Note     string    `json:"note,omitempty"`
}

// InquiryStatusChangeResponse is one status history entry.
type InquiryStatusChangeResponse struct {
	From domain.InquiryStatus `json:"from"`
	To   domain.InquiryStatus `json:"to"`
	By   string               `json:"by"`
	At   time.Time            `json:"at"`
}

// InquiryResponse provides full inquiry info.
type InquiryResponse struct {
	ID            string                        `json:"id"`
	Name          string                        `json:"name"`
	Email         string                        `json:"email"`
	Phone         string                        `json:"phone,omitempty"`
	Subject       string                        `json:"subject,omitempty"`
	Message       string                        `json:"message"`
	Status        domain.InquiryStatus          `json:"status"`
	Replies       []InquiryReplyResponse        `json:"replies"`
	StatusHistory []InquiryStatusChangeResponse `json:"statusHistory"`
	MessageCount  int                           `json:"messageCount"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

// NewInquiryResponse maps an inquiry.
func NewInquiryResponse(i *domain.Inquiry) InquiryResponse {
	out := InquiryResponse{
		ID:            i.ID,
		Name:          i.Name,
		Email:         i.Email,
		Phone:         i.Phone,
		Subject:       i.Subject,
		Message:       i.Message,
		Status:        i.Status,
		Replies:       make([]InquiryReplyResponse, 0, len(i.Replies)),
		StatusHistory: make([]InquiryStatusChangeResponse, 0, len(i.StatusHistory)),
		MessageCount:  i.MessageCount(),
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
	for _, r := range i.Replies {
		out.Replies = append(out.Replies, InquiryReplyResponse(r))
	}
	for _, h := range i.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, InquiryStatusChangeResponse(h))
	}
	return out
}

// NewInquiryResponses maps a list.
func NewInquiryResponses(items []domain.Inquiry) []InquiryResponse {
	out := make([]InquiryResponse, 0, len(items))
	for i := range items {
		out = append(out, NewInquiryResponse(&items[i]))
	}
	return out
}
