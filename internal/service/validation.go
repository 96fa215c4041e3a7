package service

import (
	"strings"

	"github.com/xactrix/xact-two/api/internal/models"
)

// ValidateBookingRequest checks that name and email are non-blank. Email syntax,
// dates and phone numbers are not checked.
func ValidateBookingRequest(req models.BookingRequest) error {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
