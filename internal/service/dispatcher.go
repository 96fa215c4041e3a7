package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xactrix/xact-two/api/internal/models"
)

// Dispatcher formats the booking notifications and sends both through a
// single relay session.
type Dispatcher struct {
	transport     MailTransport
	sender        string
	company       string
	testEmailOnly string // If set, all emails go to this address (for testing)
}

// NewDispatcher creates a dispatcher sending as sender through transport.
func NewDispatcher(transport MailTransport, sender, company, testEmailOnly string) (*Dispatcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("mail transport is required")
	}
	if sender == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	return &Dispatcher{
		transport:     transport,
		sender:        sender,
		company:       company,
		testEmailOnly: testEmailOnly,
	}, nil
}

// Prepare builds the two messages for req, applying the test-mode redirect.
func (d *Dispatcher) Prepare(req models.BookingRequest) models.NotificationPair {
	pair := BuildNotifications(req, d.sender, d.company)
	pair.Confirmation = d.redirect(pair.Confirmation)
	pair.Alert = d.redirect(pair.Alert)
	return pair
}

// Dispatch sends the confirmation and then the alert over one session. The
// session is always closed. A failure after the confirmation went out is still
// reported as a failed dispatch; DeliveryError.Delivered tells the two apart.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.BookingRequest) error {
	pair := d.Prepare(req)

	session, err := d.transport.Open(ctx)
	if err != nil {
		return newDeliveryError(err, StageConnect, 0)
	}
	defer func() {
		// QUIT errors are not reported.
		_ = session.Close()
	}()

	for i, msg := range pair.Messages() {
		if err := session.Send(ctx, msg); err != nil {
			return newDeliveryError(err, StageSend, i)
		}
	}
	return nil
}

func (d *Dispatcher) redirect(msg models.Message) models.Message {
	if d.testEmailOnly == "" || msg.To == d.testEmailOnly {
		return msg
	}
	msg.Body += fmt.Sprintf("\n[TEST MODE] Original recipient: %s\n", msg.To)
	msg.To = d.testEmailOnly
	return msg
}

func newDeliveryError(err error, stage string, delivered int) *DeliveryError {
	var se *stageError
	if errors.As(err, &se) {
		stage = se.stage
		err = se.err
	}
	return &DeliveryError{Stage: stage, Delivered: delivered, Err: err}
}
