package service

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/xactrix/xact-two/api/internal/models"
)

const (
	phonePlaceholder   = "Not Provided"
	messagePlaceholder = "N/A"
)

// Subject lines do not follow the branding config.
const (
	ConfirmationSubject = "Appointment Confirmation - Xactrix AI"
	AlertSubject        = "New Appointment Booking - Xactrix AI"
)

// FormatDate renders a date in long form, e.g. "August 03, 2025".
func FormatDate(d civil.Date) string {
	return d.In(time.UTC).Format("January 02, 2006")
}

// FormatTime renders a time of day on a 12-hour clock, e.g. "01:30 PM".
func FormatTime(t civil.Time) string {
	return time.Date(2000, time.January, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).Format("03:04 PM")
}

func orDefault(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

// BuildNotifications formats the confirmation for the requester and the alert
// for the operator inbox. The operator inbox is the sender address.
func BuildNotifications(req models.BookingRequest, sender, company string) models.NotificationPair {
	date := FormatDate(req.Date)
	clock := FormatTime(req.Time)
	phone := orDefault(req.Phone, phonePlaceholder)
	message := orDefault(req.Message, messagePlaceholder)

	confirmation := fmt.Sprintf(`Dear %s,

Thank you for booking an appointment with %s.
Here are your appointment details:

Date: %s
Time: %s
Phone: %s
Message: %s

Our team will contact you shortly.

Best regards,
%s
`, req.Name, company, date, clock, phone, message, company)

	alert := fmt.Sprintf(`A new appointment has been booked:

Name: %s
Email: %s
Phone: %s
Date: %s
Time: %s
Message: %s

Please follow up with the client at your earliest convenience.
`, req.Name, req.Email, phone, date, clock, message)

	return models.NotificationPair{
		Confirmation: models.Message{
			From:    sender,
			To:      req.Email,
			Subject: ConfirmationSubject,
			Body:    confirmation,
		},
		Alert: models.Message{
			From:    sender,
			To:      sender,
			Subject: AlertSubject,
			Body:    alert,
		},
	}
}
