// Package scheduler keeps two timed alerts pending for every open gaming
// session: one five minutes before the out time and one at the out time.
// A reconcile pass rebuilds the whole timer table from the backend's open
// set, so adds, extensions and closes never leave stale alerts behind.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mohammad-Mahdi82/GameDesk/clock"
	"github.com/Mohammad-Mahdi82/GameDesk/models"
)

const reminderLead = 5 * time.Minute

// SessionLister is the slice of the gateway the scheduler needs.
type SessionLister interface {
	ListOpenSessions(ctx context.Context) ([]models.GamingSession, error)
}

type pendingAlert struct {
	alert Alert
	delay time.Duration
	timer *time.Timer
}

// Pending describes one scheduled, not-yet-fired alert.
type Pending struct {
	Alert Alert
	Delay time.Duration
}

// Scheduler owns the process-wide alert timer table. Nothing else in the
// app schedules alerts; Shutdown leaves the table empty.
type Scheduler struct {
	lister SessionLister
	remote Sink // out-of-app channel, nil when not configured
	inApp  Sink // banner presenter, nil in headless tests
	logger zerolog.Logger

	tickEvery time.Duration

	mu     sync.Mutex
	table  map[uuid.UUID]*pendingAlert
	closed bool

	reconciling atomic.Bool
	foreground  atomic.Bool

	stopTick chan struct{}
	stopOnce sync.Once
}

// New wires a scheduler. remote may be nil when no out-of-app channel is
// configured; Init then warns once through the in-app sink and the
// scheduler runs banner-only.
func New(lister SessionLister, remote, inApp Sink, logger zerolog.Logger) *Scheduler {
	s := &Scheduler{
		lister:    lister,
		remote:    remote,
		inApp:     inApp,
		logger:    logger.With().Str("component", "scheduler").Logger(),
		tickEvery: time.Minute,
		table:     make(map[uuid.UUID]*pendingAlert),
		stopTick:  make(chan struct{}),
	}
	s.foreground.Store(true)
	return s
}

// Init runs the first reconcile and starts the foreground tick loop.
func (s *Scheduler) Init(ctx context.Context) {
	if s.remote == nil && s.inApp != nil {
		s.inApp.Deliver(Alert{
			ID:       uuid.New(),
			Kind:     KindNoRemoteSink,
			Severity: SeverityWarning,
			Title:    "Notifications Limited",
			Body:     "No Telegram channel is configured; session alerts will only appear inside the app.",
		})
	}

	s.Reconcile(ctx)
	go s.tickLoop(ctx)
}

// SetForeground feeds app foreground/background transitions in as
// explicit events. Coming back to the foreground triggers a reconcile.
func (s *Scheduler) SetForeground(ctx context.Context, fg bool) {
	was := s.foreground.Swap(fg)
	if fg && !was {
		s.Reconcile(ctx)
	}
}

// Reconcile is the atomic cancel-fetch-reschedule cycle. A cycle already
// in flight makes concurrent triggers no-ops; they are dropped, not
// queued, because the running cycle already fetches the freshest set the
// trigger could have asked for.
func (s *Scheduler) Reconcile(ctx context.Context) {
	if !s.reconciling.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("reconcile already in flight, dropping trigger")
		return
	}
	defer s.reconciling.Store(false)

	s.cancelAll()

	sessions, err := s.lister.ListOpenSessions(ctx)
	if err != nil {
		// Reported in-app only; pushing fetch errors through the remote
		// sink would drown staff in notifications. The schedule stays
		// empty until the next cycle retries.
		s.logger.Warn().Err(err).Msg("open session fetch failed")
		if s.inApp != nil {
			s.inApp.Deliver(Alert{
				ID:       uuid.New(),
				Kind:     KindRefreshFailed,
				Severity: SeverityError,
				Title:    "Refresh Failed",
				Body:     "Could not fetch open sessions; alerts paused until the next refresh.",
			})
		}
		return
	}

	scheduled := 0
	for _, sess := range sessions {
		if !sess.IsOpen() {
			continue
		}
		out, err := sess.OutClock()
		if err != nil {
			// One broken record must not take down the rest of the set.
			s.logger.Error().Err(err).Str("session", sess.ID).Msg("skipping session with bad out time")
			continue
		}

		delayOut := time.Duration(clock.MsUntilClockToday(out)) * time.Millisecond
		delaySoon := delayOut - reminderLead

		if delaySoon > 0 {
			s.schedule(reminderAlert(sess.CustomerName, sess.Device.DeviceName), delaySoon)
			scheduled++
		}
		if delayOut > 0 {
			s.schedule(endAlert(sess.CustomerName, sess.Device.DeviceName), delayOut)
			scheduled++
		}
	}
	s.logger.Info().Int("sessions", len(sessions)).Int("alerts", scheduled).Msg("reconciled")
}

func (s *Scheduler) schedule(a Alert, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	p := &pendingAlert{alert: a, delay: delay}
	p.timer = time.AfterFunc(delay, func() { s.fire(a.ID) })
	s.table[a.ID] = p
}

func (s *Scheduler) fire(id uuid.UUID) {
	s.mu.Lock()
	p, ok := s.table[id]
	if ok {
		delete(s.table, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	// The remote channel always gets the alert; the banner only makes
	// sense while an operator is looking at the screen.
	if s.remote != nil {
		s.remote.Deliver(p.alert)
	}
	if s.inApp != nil && s.foreground.Load() {
		s.inApp.Deliver(p.alert)
	}
}

func (s *Scheduler) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.table {
		p.timer.Stop()
		delete(s.table, id)
	}
}

// Pending snapshots the timer table, soonest first.
func (s *Scheduler) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Pending, 0, len(s.table))
	for _, p := range s.table {
		out = append(out, Pending{Alert: p.alert, Delay: p.delay})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Delay < out[j].Delay })
	return out
}

// Shutdown cancels every outstanding alert and stops the tick loop, so a
// restart begins from a clean slate.
func (s *Scheduler) Shutdown() {
	s.stopOnce.Do(func() { close(s.stopTick) })

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancelAll()
}

func (s *Scheduler) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.foreground.Load() {
				s.Reconcile(ctx)
			}
		case <-s.stopTick:
			return
		case <-ctx.Done():
			return
		}
	}
}
