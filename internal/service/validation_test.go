package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xactrix/xact-two/api/internal/models"
)

func TestValidateBookingRequest(t *testing.T) {
	tests := []struct {
		name        string
		req         models.BookingRequest
		wantMissing []string
	}{
		{"valid", models.BookingRequest{Name: "Jane", Email: "jane@x.com"}, nil},
		{"syntax is not checked", models.BookingRequest{Name: "Jane", Email: "not-an-email"}, nil},
		{"empty name", models.BookingRequest{Email: "a@b.com"}, []string{"name"}},
		{"whitespace name", models.BookingRequest{Name: " \t ", Email: "a@b.com"}, []string{"name"}},
		{"empty email", models.BookingRequest{Name: "Jane"}, []string{"email"}},
		{"whitespace email", models.BookingRequest{Name: "Jane", Email: "\n"}, []string{"email"}},
		{"both empty", models.BookingRequest{Phone: "0700"}, []string{"name", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBookingRequest(tt.req)
			if tt.wantMissing == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMissing, verr.Missing)
			assert.Contains(t, err.Error(), "Please provide at least your name and email address.")
		})
	}
}

func TestDeliveryError(t *testing.T) {
	cause := errors.New("535 authentication failed")
	err := &DeliveryError{Stage: StageAuth, Err: cause}

	assert.Equal(t, "Error sending email: 535 authentication failed", err.Error())
	assert.ErrorIs(t, err, cause)
}
