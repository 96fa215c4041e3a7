package models

import (
	"strings"

	"cloud.google.com/go/civil"
)

// BookingRequest is one appointment request submitted through the form.
// It lives for a single submission and is never stored.
type BookingRequest struct {
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone,omitempty"`
	Date    civil.Date `json:"date"`
	Time    civil.Time `json:"time"`
	Message string     `json:"message,omitempty"`
}

// Normalize returns a copy with surrounding whitespace removed from the text fields.
func (r BookingRequest) Normalize() BookingRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Message = strings.TrimSpace(r.Message)
	return r
}

// Receipt acknowledges a dispatched booking.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Recipient    string `json:"recipient"`
}
