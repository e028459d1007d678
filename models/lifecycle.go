package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Mohammad-Mahdi82/GameDesk/clock"
)

// ErrValidation marks client-side precondition failures. These never reach
// the gateway; the UI shows them inline on the offending form field.
var ErrValidation = errors.New("validation failed")

var validate = validator.New()

var hoursStep = decimal.NewFromFloat(0.25)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// SessionInput is what the add-session form collects.
type SessionInput struct {
	CustomerName    string `validate:"required"`
	CustomerContact string `validate:"required,len=10,numeric"`
	DeviceName      string `validate:"required"`
	Date            time.Time
	Hours           decimal.Decimal
	InTime          clock.Clock
	OutTime         clock.Clock
	Discount        Discount
	NoOfPlayers     int `validate:"gte=1"`
	Snacks          int `validate:"gte=0"`
	WaterBottles    int `validate:"gte=0"`
}

// Wire payloads, exact keys the backend expects.

type AddSessionRequest struct {
	CustomerName    string  `json:"customer_name"`
	CustomerContact string  `json:"customer_contact"`
	DeviceName      string  `json:"device_name"`
	Date            string  `json:"date"`
	Hours           float64 `json:"hours"`
	InTime          string  `json:"in_time"`
	OutTime         string  `json:"out_time"`
	Discount        string  `json:"discount"`
	NoOfPlayers     int     `json:"no_of_players"`
	Snacks          int     `json:"snacks"`
	WaterBottles    int     `json:"water_bottles"`
}

type ExtendSessionRequest struct {
	SessionID string  `json:"session_id"`
	Minutes   float64 `json:"minutes"`
	OutTime   string  `json:"out_time"`
}

type SessionItemsRequest struct {
	SessionID    string `json:"session_id"`
	Snacks       int    `json:"snacks"`
	WaterBottles int    `json:"water_bottles"`
}

type CloseSessionRequest struct {
	SessionID string `json:"session_id"`
}

type AddDeviceRequest struct {
	CategoryID string `json:"category_id"`
	DeviceName string `json:"device_name"`
}

type DeviceStatusRequest struct {
	DeviceID string       `json:"device_id"`
	Status   DeviceStatus `json:"status"`
}

// HoursToMinutes converts a planned duration to whole minutes. Durations
// move in 0.25 h steps, so the result is always exact.
func HoursToMinutes(h decimal.Decimal) (int, error) {
	m := h.Mul(decimal.NewFromInt(60))
	if !m.IsInteger() {
		return 0, invalid("hours %s is not a multiple of 0.25", h)
	}
	return int(m.IntPart()), nil
}

// BuildAddSession validates the form input against the device list and
// yields the Open-session payload for the gateway. The out time must equal
// in time plus the planned hours, allowing a single midnight wrap.
func BuildAddSession(in SessionInput, devices []Device) (AddSessionRequest, error) {
	var req AddSessionRequest

	if err := validate.Struct(in); err != nil {
		return req, invalid("%v", err)
	}
	if !in.Hours.IsPositive() {
		return req, invalid("hours must be greater than zero")
	}
	if !in.Hours.Mod(hoursStep).IsZero() {
		return req, invalid("hours must move in 0.25 steps")
	}

	device, ok := findDevice(devices, in.DeviceName)
	if !ok {
		return req, invalid("unknown device %q", in.DeviceName)
	}
	if device.Status != DeviceActive {
		return req, invalid("device %q is inactive", in.DeviceName)
	}

	minutes, err := HoursToMinutes(in.Hours)
	if err != nil {
		return req, err
	}
	if in.InTime.AddMinutes(minutes) != in.OutTime {
		return req, invalid("out time %s does not match in time %s plus %s hours",
			in.OutTime, in.InTime, in.Hours)
	}

	discount := in.Discount
	if discount == "" {
		discount = DiscountNone
	}

	return AddSessionRequest{
		CustomerName:    in.CustomerName,
		CustomerContact: in.CustomerContact,
		DeviceName:      in.DeviceName,
		Date:            clock.FormatDate(in.Date),
		Hours:           in.Hours.InexactFloat64(),
		InTime:          clock.FormatClock(in.InTime),
		OutTime:         clock.FormatClock(in.OutTime),
		Discount:        string(discount),
		NoOfPlayers:     in.NoOfPlayers,
		Snacks:          in.Snacks,
		WaterBottles:    in.WaterBottles,
	}, nil
}

// Extend yields the extension payload for a running session. Only the
// three picker durations are accepted; a closed session cannot grow.
func Extend(s GamingSession, minutes int) (ExtendSessionRequest, error) {
	var req ExtendSessionRequest

	if !s.IsOpen() {
		return req, invalid("session %s is closed", s.ID)
	}
	if minutes != 15 && minutes != 30 && minutes != 60 {
		return req, invalid("extension must be 15, 30 or 60 minutes")
	}

	out, err := s.OutClock()
	if err != nil {
		return req, invalid("session %s has unreadable out time: %v", s.ID, err)
	}

	return ExtendSessionRequest{
		SessionID: s.ID,
		Minutes:   float64(minutes),
		OutTime:   clock.FormatClock(out.AddMinutes(minutes)),
	}, nil
}

// AddItems yields the consumables payload. Quantities are absolute, not
// deltas, so resubmitting current values is harmless.
func AddItems(s GamingSession, snacks, waterBottles int) (SessionItemsRequest, error) {
	var req SessionItemsRequest

	if s.Status == StatusClose {
		return req, invalid("session %s is closed", s.ID)
	}
	if snacks < 0 || waterBottles < 0 {
		return req, invalid("quantities cannot be negative")
	}

	return SessionItemsRequest{SessionID: s.ID, Snacks: snacks, WaterBottles: waterBottles}, nil
}

// Close yields the terminal transition payload.
func Close(s GamingSession) (CloseSessionRequest, error) {
	if s.Status == StatusClose {
		return CloseSessionRequest{}, invalid("session %s is already closed", s.ID)
	}
	return CloseSessionRequest{SessionID: s.ID}, nil
}

// FindCategory resolves one of the canonical category names from the
// fetched list. Category ids are backend-issued and never hard-coded.
func FindCategory(categories []DeviceCategory, name string) (DeviceCategory, bool) {
	for _, c := range categories {
		if c.CategoryName == name {
			return c, true
		}
	}
	return DeviceCategory{}, false
}

func findDevice(devices []Device, name string) (Device, bool) {
	for _, d := range devices {
		if d.DeviceName == name {
			return d, true
		}
	}
	return Device{}, false
}
