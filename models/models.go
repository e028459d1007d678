// Package models holds the gaming-center entities as the backend sends
// them, plus the session lifecycle rules. Field names mirror the backend
// JSON; the backend owns pricing and ids, this side only reads them back.
package models

import (
	"github.com/Mohammad-Mahdi82/GameDesk/clock"
	"github.com/shopspring/decimal"
)

// Status is the session lifecycle state. Close is terminal.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusExtended Status = "Extended"
	StatusClose    Status = "Close"
)

// DeviceStatus flags whether a station may host new sessions.
type DeviceStatus string

const (
	DeviceActive   DeviceStatus = "Active"
	DeviceInactive DeviceStatus = "Inactive"
)

// Discount is sent to the backend as free text; these are the only two
// values the old client ever produced, so they are the only two we send.
type Discount string

const (
	DiscountNone       Discount = "None"
	DiscountHappyHours Discount = "Happy Hours"
)

// The two canonical categories the UI recognizes, matched on
// CategoryName, never on id.
const (
	CategoryPlaystation = "Playstation"
	CategoryPC          = "PC"
)

type DeviceCategory struct {
	ID           string `json:"id"`
	CategoryName string `json:"CategoryName"`
}

type Device struct {
	ID         string       `json:"id"`
	DeviceName string       `json:"DeviceName"`
	CategoryID string       `json:"CategoryId"`
	Status     DeviceStatus `json:"Status"`
	Category   DeviceCategory `json:"Category"`
}

// GamingSession is a display/scheduling snapshot of one backend session.
// Snapshots are replaced whole on every refresh, never merged.
type GamingSession struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"CustomerName"`
	CustomerContact string          `json:"CustomerContact"`
	Date            string          `json:"Date"`
	Hours           decimal.Decimal `json:"Hours"`
	InTime          string          `json:"InTime"`
	OutTime         string          `json:"OutTime"`
	Discount        string          `json:"Discount"`
	NoOfPlayers     int             `json:"NoOfPlayers"`
	Snacks          int             `json:"Snacks"`
	WaterBottles    int             `json:"WaterBottles"`
	SessionPrice    decimal.Decimal `json:"SessionPrice"`
	Status          Status          `json:"Status"`
	Device          Device          `json:"Device"`
}

// IsOpen reports whether the session counts toward the active set the
// expiry scheduler works from.
func (s *GamingSession) IsOpen() bool {
	return s.Status == StatusOpen || s.Status == StatusExtended
}

// OutClock parses the session's out-time string.
func (s *GamingSession) OutClock() (clock.Clock, error) {
	return clock.ParseClock(s.OutTime)
}
