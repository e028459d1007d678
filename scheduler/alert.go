package scheduler

import (
	"fmt"

	"github.com/google/uuid"
)

// AlertKind tags what a fired alert is about.
type AlertKind string

const (
	KindSessionReminder AlertKind = "session_reminder"
	KindSessionEnd      AlertKind = "session_end"
	KindRefreshFailed   AlertKind = "refresh_failed"
	KindNoRemoteSink    AlertKind = "no_remote_sink"
)

// Severity maps onto the banner styling of the in-app sink.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// Alert is the payload handed to every sink when a scheduled moment
// arrives. CustomerName and DeviceName ride along so sinks do not need
// the session itself.
type Alert struct {
	ID           uuid.UUID
	Kind         AlertKind
	Severity     Severity
	Title        string
	Body         string
	CustomerName string
	DeviceName   string
}

// Sink is a destination for alerts. Implementations must not block for
// long and must swallow their own delivery failures (logging them).
type Sink interface {
	Deliver(Alert)
}

func reminderAlert(customer, device string) Alert {
	return Alert{
		ID:           uuid.New(),
		Kind:         KindSessionReminder,
		Severity:     SeverityWarning,
		Title:        "Session Ending Soon",
		Body:         fmt.Sprintf("%s's session at %s will end in 5 minutes.", customer, device),
		CustomerName: customer,
		DeviceName:   device,
	}
}

func endAlert(customer, device string) Alert {
	return Alert{
		ID:           uuid.New(),
		Kind:         KindSessionEnd,
		Severity:     SeverityError,
		Title:        "Session Ending Now",
		Body:         fmt.Sprintf("%s's session at %s is ended.", customer, device),
		CustomerName: customer,
		DeviceName:   device,
	}
}
