package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Mahdi82/GameDesk/clock"
)

var testDevices = []Device{
	{ID: "d1", DeviceName: "PS5-01", Status: DeviceActive},
	{ID: "d2", DeviceName: "PC-03", Status: DeviceInactive},
}

func validInput() SessionInput {
	return SessionInput{
		CustomerName:    "Arjun",
		CustomerContact: "9876543210",
		DeviceName:      "PS5-01",
		Date:            time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local),
		Hours:           decimal.NewFromInt(1),
		InTime:          clock.Clock{Hour: 10},
		OutTime:         clock.Clock{Hour: 11},
		Discount:        DiscountNone,
		NoOfPlayers:     1,
	}
}

func TestBuildAddSession(t *testing.T) {
	req, err := BuildAddSession(validInput(), testDevices)
	require.NoError(t, err)
	require.Equal(t, "Arjun", req.CustomerName)
	require.Equal(t, "01 June 2025", req.Date)
	require.Equal(t, "10:00 AM", req.InTime)
	require.Equal(t, "11:00 AM", req.OutTime)
	require.Equal(t, 1.0, req.Hours)
	require.Equal(t, "None", req.Discount)
}

func TestBuildAddSessionShortContact(t *testing.T) {
	in := validInput()
	in.CustomerContact = "12345"
	_, err := BuildAddSession(in, testDevices)
	require.ErrorIs(t, err, ErrValidation)
}

func TestBuildAddSessionRejects(t *testing.T) {
	cases := map[string]func(*SessionInput){
		"empty name":          func(in *SessionInput) { in.CustomerName = "" },
		"alpha contact":       func(in *SessionInput) { in.CustomerContact = "98765golem" },
		"zero hours":          func(in *SessionInput) { in.Hours = decimal.Zero },
		"negative hours":      func(in *SessionInput) { in.Hours = decimal.NewFromInt(-1) },
		"off-step hours":      func(in *SessionInput) { in.Hours = decimal.NewFromFloat(1.1) },
		"unknown device":      func(in *SessionInput) { in.DeviceName = "PS5-99" },
		"inactive device":     func(in *SessionInput) { in.DeviceName = "PC-03" },
		"mismatched out time": func(in *SessionInput) { in.OutTime = clock.Clock{Hour: 12} },
		"zero players":        func(in *SessionInput) { in.NoOfPlayers = 0 },
		"negative snacks":     func(in *SessionInput) { in.Snacks = -1 },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		_, err := BuildAddSession(in, testDevices)
		require.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestBuildAddSessionMidnightWrap(t *testing.T) {
	in := validInput()
	in.InTime = clock.Clock{Hour: 23}
	in.OutTime = clock.Clock{Hour: 1}
	in.Hours = decimal.NewFromInt(2)

	req, err := BuildAddSession(in, testDevices)
	require.NoError(t, err)
	require.Equal(t, "11:00 PM", req.InTime)
	require.Equal(t, "01:00 AM", req.OutTime)
}

func TestBuildAddSessionQuarterHours(t *testing.T) {
	in := validInput()
	in.Hours = decimal.NewFromFloat(1.5)
	in.OutTime = clock.Clock{Hour: 11, Minute: 30}

	req, err := BuildAddSession(in, testDevices)
	require.NoError(t, err)
	require.Equal(t, 1.5, req.Hours)
}

func TestExtend(t *testing.T) {
	s := GamingSession{ID: "s1", Status: StatusOpen, OutTime: "11:00 AM"}

	req, err := Extend(s, 30)
	require.NoError(t, err)
	require.Equal(t, "s1", req.SessionID)
	require.Equal(t, 30.0, req.Minutes)
	require.Equal(t, "11:30 AM", req.OutTime)
}

func TestExtendAlreadyExtended(t *testing.T) {
	s := GamingSession{ID: "s1", Status: StatusExtended, OutTime: "11:45 PM"}

	req, err := Extend(s, 60)
	require.NoError(t, err)
	require.Equal(t, "12:45 AM", req.OutTime)
}

func TestExtendRejectsOddMinutes(t *testing.T) {
	s := GamingSession{ID: "s1", Status: StatusOpen, OutTime: "11:00 AM"}
	for _, m := range []int{0, 10, 45, 90} {
		_, err := Extend(s, m)
		require.ErrorIs(t, err, ErrValidation, m)
	}
}

func TestClosedSessionIsTerminal(t *testing.T) {
	s := GamingSession{ID: "s1", Status: StatusClose, OutTime: "11:00 AM"}

	_, err := Extend(s, 15)
	require.ErrorIs(t, err, ErrValidation)

	_, err = AddItems(s, 1, 1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = Close(s)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAddItemsSameValues(t *testing.T) {
	// Resubmitting the current quantities is allowed; the server treats
	// the update as idempotent.
	s := GamingSession{ID: "s1", Status: StatusOpen, Snacks: 2, WaterBottles: 1}

	req, err := AddItems(s, 2, 1)
	require.NoError(t, err)
	require.Equal(t, SessionItemsRequest{SessionID: "s1", Snacks: 2, WaterBottles: 1}, req)
}

func TestFindCategory(t *testing.T) {
	cats := []DeviceCategory{
		{ID: "c1", CategoryName: CategoryPC},
		{ID: "c2", CategoryName: CategoryPlaystation},
	}
	got, ok := FindCategory(cats, CategoryPlaystation)
	require.True(t, ok)
	require.Equal(t, "c2", got.ID)

	_, ok = FindCategory(cats, "Xbox")
	require.False(t, ok)
}
