package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/xactrix/xact-two/api/internal/config"
	"github.com/xactrix/xact-two/api/internal/logger"
	"github.com/xactrix/xact-two/api/internal/models"
	"github.com/xactrix/xact-two/api/internal/service"
)

const successMessage = "Your appointment has been booked successfully! A confirmation email has been sent to you."

// BookingSubmitter runs the booking workflow.
type BookingSubmitter interface {
	Submit(ctx context.Context, req models.BookingRequest) (*models.Receipt, error)
}

// bookingForm mirrors the page's inputs. Length limits match the form's maxlength.
type bookingForm struct {
	Name    string `form:"name" json:"name" binding:"max=100"`
	Email   string `form:"email" json:"email" binding:"max=100"`
	Phone   string `form:"phone" json:"phone" binding:"max=15"`
	Date    string `form:"date" json:"date"`
	Time    string `form:"time" json:"time"`
	Message string `form:"message" json:"message" binding:"max=5000"`
}

// bookingResponse is the JSON body returned by the API endpoint.
type bookingResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Error        string   `json:"error,omitempty"`
	SubmissionID string   `json:"submission_id,omitempty"`
	Missing      []string `json:"missing,omitempty"`
}

type pageData struct {
	Branding config.BrandingConfig
	Form     bookingForm
	Success  string
	Error    string
}

type BookingHandler struct {
	submitter BookingSubmitter
	branding  config.BrandingConfig
	logger    *logger.Logger
	now       func() time.Time
}

func NewBookingHandler(submitter BookingSubmitter, branding config.BrandingConfig, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		submitter: submitter,
		branding:  branding,
		logger:    log,
		now:       time.Now,
	}
}

// ShowForm handles GET /
func (h *BookingHandler) ShowForm(c *gin.Context) {
	today := h.now()
	c.HTML(http.StatusOK, bookingTemplateName, pageData{
		Branding: h.branding,
		Form: bookingForm{
			Date: civil.DateOf(today).String(),
			Time: today.Format("15:04"),
		},
	})
}

// SubmitForm handles POST /book
func (h *BookingHandler) SubmitForm(c *gin.Context) {
	var form bookingForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("Invalid booking form", logger.Path(c.FullPath()), logger.Error(err))
		h.renderPage(c, http.StatusBadRequest, form, "", "Invalid form submission: "+err.Error())
		return
	}
	req, err := form.toRequest(h.now())
	if err != nil {
		h.renderPage(c, http.StatusBadRequest, form, "", err.Error())
		return
	}

	if _, err := h.submitter.Submit(c.Request.Context(), req); err != nil {
		h.renderPage(c, statusFor(err), form, "", err.Error())
		return
	}
	h.renderPage(c, http.StatusOK, bookingForm{}, successMessage, "")
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var form bookingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Warn("Invalid booking request body", logger.Path(c.FullPath()), logger.Error(err))
		c.JSON(http.StatusBadRequest, bookingResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}
	req, err := form.toRequest(h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, bookingResponse{Message: "Invalid request body", Error: err.Error()})
		return
	}

	receipt, err := h.submitter.Submit(c.Request.Context(), req)
	if err != nil {
		resp := bookingResponse{Message: "Booking failed", Error: err.Error()}
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			resp.Missing = verr.Missing
		}
		c.JSON(statusFor(err), resp)
		return
	}

	c.JSON(http.StatusOK, bookingResponse{
		Success:      true,
		Message:      successMessage,
		SubmissionID: receipt.SubmissionID,
	})
}

// Health handles GET /healthz
func (h *BookingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *BookingHandler) renderPage(c *gin.Context, status int, form bookingForm, success, errMsg string) {
	c.HTML(status, bookingTemplateName, pageData{
		Branding: h.branding,
		Form:     form,
		Success:  success,
		Error:    errMsg,
	})
}

func statusFor(err error) int {
	var verr *service.ValidationError
	var derr *service.DeliveryError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &derr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toRequest parses the date and time inputs. Blank values default to today and
// the current minute. Name, email and phone must be single-line.
func (f bookingForm) toRequest(now time.Time) (models.BookingRequest, error) {
	for _, field := range []struct{ name, value string }{
		{"name", f.Name},
		{"email", f.Email},
		{"phone", f.Phone},
	} {
		if strings.ContainsAny(field.value, "\r\n") {
			return models.BookingRequest{}, fmt.Errorf("invalid %s: line breaks are not allowed", field.name)
		}
	}

	req := models.BookingRequest{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Message: f.Message,
		Date:    civil.DateOf(now),
		Time:    civil.TimeOf(now.Truncate(time.Minute)),
	}

	if s := strings.TrimSpace(f.Date); s != "" {
		d, err := civil.ParseDate(s)
		if err != nil {
			return req, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
		}
		req.Date = d
	}
	if s := strings.TrimSpace(f.Time); s != "" {
		t, err := parseClock(s)
		if err != nil {
			return req, fmt.Errorf("invalid time %q: expected HH:MM", s)
		}
		req.Time = t
	}
	return req, nil
}

func parseClock(s string) (civil.Time, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.TimeOf(t), nil
		}
	}
	return civil.Time{}, fmt.Errorf("unrecognized time %q", s)
}
