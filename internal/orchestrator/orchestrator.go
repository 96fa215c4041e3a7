package orchestrator

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/xactrix/xact-two/api/internal/logger"
	"github.com/xactrix/xact-two/api/internal/models"
	"github.com/xactrix/xact-two/api/internal/service"
)

// Orchestrator coordinates the booking workflow: validate, then dispatch.
type Orchestrator struct {
	Logger   *logger.Logger
	Notifier service.Notifier
	NewID    func() string
}

// New creates an orchestrator with uuid submission IDs.
func New(log *logger.Logger, notifier service.Notifier) *Orchestrator {
	return &Orchestrator{
		Logger:   log,
		Notifier: notifier,
		NewID:    uuid.NewString,
	}
}

// Submit runs one booking request to completion. Validation failures return a
// *service.ValidationError before any network activity; relay failures return
// a *service.DeliveryError.
func (o *Orchestrator) Submit(ctx context.Context, req models.BookingRequest) (*models.Receipt, error) {
	req = req.Normalize()
	id := o.NewID()

	if err := service.ValidateBookingRequest(req); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			o.Logger.Warn("Booking rejected",
				logger.Action("validate"),
				logger.Status("invalid"),
				logger.Submission(id),
				logger.Missing(verr.Missing))
		}
		return nil, err
	}

	o.Logger.Info("Dispatching booking notifications",
		logger.Action("dispatch"),
		logger.Status("sending"),
		logger.Submission(id),
		logger.Recipient(req.Email),
		logger.F("DATE", req.Date.String()),
		logger.F("TIME", req.Time.String()))

	if err := o.Notifier.Dispatch(ctx, req); err != nil {
		o.logDeliveryFailure(id, req.Email, err)
		return nil, err
	}

	o.Logger.Info("Booking notifications sent",
		logger.Action("dispatch"),
		logger.Status("success"),
		logger.Submission(id),
		logger.Recipient(req.Email),
		logger.Delivered(2))

	return &models.Receipt{SubmissionID: id, Recipient: req.Email}, nil
}

func (o *Orchestrator) logDeliveryFailure(id, recipient string, err error) {
	fields := []logger.Field{
		logger.Action("dispatch"),
		logger.Status("failed"),
		logger.Submission(id),
		logger.Recipient(recipient),
		logger.Error(err),
	}
	var derr *service.DeliveryError
	if errors.As(err, &derr) {
		fields = append(fields, logger.Stage(derr.Stage), logger.Delivered(derr.Delivered))
		if derr.Delivered > 0 {
			o.Logger.Warn("Partial delivery: confirmation sent but alert failed", fields...)
		}
	}
	o.Logger.Error("Failed to send booking notifications", fields...)
}
