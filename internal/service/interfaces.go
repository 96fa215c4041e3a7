package service

import (
	"context"

	"github.com/xactrix/xact-two/api/internal/models"
)

// MailTransport opens authenticated sessions against the relay.
type MailTransport interface {
	Open(ctx context.Context) (MailSession, error)
}

// MailSession is one connected, authenticated relay session.
type MailSession interface {
	Send(ctx context.Context, msg models.Message) error
	Close() error
}

// Notifier abstracts booking dispatch for testability.
type Notifier interface {
	Dispatch(ctx context.Context, req models.BookingRequest) error
}
