package service

import (
	"fmt"
	"strings"
)

// ValidationError reports required booking fields that were left blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Please provide at least your name and email address. Missing: %s",
		strings.Join(e.Missing, ", "))
}

// Delivery stages, in the order a session goes through them.
const (
	StageConnect  = "connect"
	StageStartTLS = "starttls"
	StageAuth     = "auth"
	StageSend     = "send"
)

// DeliveryError wraps any relay failure. Delivered counts the messages the
// relay accepted before the fault, so a non-zero value means partial delivery.
type DeliveryError struct {
	Stage     string
	Delivered int
	Err       error
}

func (e *DeliveryError) Error() string {
	return "Error sending email: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// stageError tags a transport failure with the stage it happened in.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }
