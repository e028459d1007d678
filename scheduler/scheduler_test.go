package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Mohammad-Mahdi82/GameDesk/clock"
	"github.com/Mohammad-Mahdi82/GameDesk/models"
)

type fakeLister struct {
	mu       sync.Mutex
	sessions []models.GamingSession
	err      error
	calls    int
	gate     chan struct{} // when set, ListOpenSessions blocks on it
}

func (f *fakeLister) ListOpenSessions(ctx context.Context) ([]models.GamingSession, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	sessions, err := f.sessions, f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return sessions, err
}

func (f *fakeLister) set(sessions []models.GamingSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (f *fakeSink) Deliver(a Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
}

func (f *fakeSink) delivered() []Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Alert(nil), f.alerts...)
}

func fixNow(t *testing.T, at time.Time) {
	t.Helper()
	old := clock.Now
	clock.Now = func() time.Time { return at }
	t.Cleanup(func() { clock.Now = old })
}

func openSession(id, customer, device, outTime string) models.GamingSession {
	return models.GamingSession{
		ID:           id,
		CustomerName: customer,
		OutTime:      outTime,
		Status:       models.StatusOpen,
		Device:       models.Device{DeviceName: device},
	}
}

func newTestScheduler(lister SessionLister, remote, inApp Sink) *Scheduler {
	s := New(lister, remote, inApp, zerolog.Nop())
	return s
}

func TestReconcileSchedulesTwoAlertsPerSession(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("s1", "Arjun", "PS5-01", "10:30 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 2)

	require.Equal(t, KindSessionReminder, pending[0].Alert.Kind)
	require.Equal(t, 25*time.Minute, pending[0].Delay)
	require.Equal(t, "Arjun", pending[0].Alert.CustomerName)
	require.Equal(t, "PS5-01", pending[0].Alert.DeviceName)

	require.Equal(t, KindSessionEnd, pending[1].Alert.Kind)
	require.Equal(t, 30*time.Minute, pending[1].Delay)
}

func TestReconcileMidnightWrap(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 23, 0, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("s1", "Mina", "PC-02", "01:00 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, time.Hour+55*time.Minute, pending[0].Delay)
	require.Equal(t, 2*time.Hour, pending[1].Delay)
}

func TestReconcileSkipsReminderInsideLead(t *testing.T) {
	// Out time three minutes away: the five-minute reminder would be in
	// the past, only the end alert survives.
	fixNow(t, time.Date(2025, 6, 1, 10, 27, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("s1", "Arjun", "PS5-01", "10:30 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, KindSessionEnd, pending[0].Alert.Kind)
	require.Equal(t, 3*time.Minute, pending[0].Delay)
}

func TestReconcilePastOutTimeWrapsToTomorrow(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 11, 0, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("s1", "Arjun", "PS5-01", "10:00 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, 23*time.Hour-5*time.Minute, pending[0].Delay)
	require.Equal(t, 23*time.Hour, pending[1].Delay)
}

func TestReconcileDropsStaleAlerts(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("a", "Arjun", "PS5-01", "11:00 AM"),
		openSession("b", "Mina", "PC-02", "11:30 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())
	require.Len(t, s.Pending(), 4)

	// B closes; the next reconcile must leave only A's alerts.
	lister.set([]models.GamingSession{
		openSession("a", "Arjun", "PS5-01", "11:00 AM"),
	})
	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 2)
	for _, p := range pending {
		require.Equal(t, "Arjun", p.Alert.CustomerName)
	}
}

func TestReconcileIgnoresClosedAndBrokenSessions(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local))

	closed := openSession("c", "Gone", "PC-01", "11:00 AM")
	closed.Status = models.StatusClose
	broken := openSession("x", "Odd", "PC-02", "25 o'clock")

	lister := &fakeLister{sessions: []models.GamingSession{
		closed,
		broken,
		openSession("a", "Arjun", "PS5-01", "11:00 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	pending := s.Pending()
	require.Len(t, pending, 2)
	for _, p := range pending {
		require.Equal(t, "Arjun", p.Alert.CustomerName)
	}
}

func TestReconcileFetchFailure(t *testing.T) {
	banner := &fakeSink{}
	lister := &fakeLister{err: errors.New("boom")}
	s := newTestScheduler(lister, &fakeSink{}, banner)
	defer s.Shutdown()

	s.Reconcile(context.Background())

	require.Empty(t, s.Pending())
	alerts := banner.delivered()
	require.Len(t, alerts, 1)
	require.Equal(t, KindRefreshFailed, alerts[0].Kind)
	require.Equal(t, SeverityError, alerts[0].Severity)
}

func TestFireFansOutToBothSinksWhenForeground(t *testing.T) {
	remote := &fakeSink{}
	inApp := &fakeSink{}
	s := newTestScheduler(&fakeLister{}, remote, inApp)
	defer s.Shutdown()

	s.schedule(endAlert("Arjun", "PS5-01"), time.Millisecond)

	require.Eventually(t, func() bool {
		return len(remote.delivered()) == 1 && len(inApp.delivered()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, s.Pending())
}

func TestFireSkipsBannerWhenBackgrounded(t *testing.T) {
	remote := &fakeSink{}
	inApp := &fakeSink{}
	s := newTestScheduler(&fakeLister{}, remote, inApp)
	defer s.Shutdown()

	s.SetForeground(context.Background(), false)
	s.schedule(endAlert("Arjun", "PS5-01"), time.Millisecond)

	require.Eventually(t, func() bool {
		return len(remote.delivered()) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, inApp.delivered())
}

func TestForegroundTransitionTriggersReconcile(t *testing.T) {
	lister := &fakeLister{}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	ctx := context.Background()
	s.SetForeground(ctx, false)
	require.Equal(t, 0, lister.callCount())

	s.SetForeground(ctx, true)
	require.Equal(t, 1, lister.callCount())

	// Already foreground: no extra reconcile.
	s.SetForeground(ctx, true)
	require.Equal(t, 1, lister.callCount())
}

func TestConcurrentReconcileIsDropped(t *testing.T) {
	gate := make(chan struct{})
	lister := &fakeLister{gate: gate}
	s := newTestScheduler(lister, nil, nil)
	defer s.Shutdown()

	done := make(chan struct{})
	go func() {
		s.Reconcile(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return lister.callCount() == 1 }, time.Second, time.Millisecond)

	// A second trigger while the first is fetching must be dropped.
	s.Reconcile(context.Background())
	require.Equal(t, 1, lister.callCount())

	close(gate)
	<-done
}

func TestShutdownClearsTable(t *testing.T) {
	fixNow(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local))

	lister := &fakeLister{sessions: []models.GamingSession{
		openSession("a", "Arjun", "PS5-01", "11:00 AM"),
	}}
	s := newTestScheduler(lister, nil, nil)

	s.Reconcile(context.Background())
	require.Len(t, s.Pending(), 2)

	s.Shutdown()
	require.Empty(t, s.Pending())

	// Scheduling after shutdown is a no-op.
	s.schedule(endAlert("Late", "PC-01"), time.Minute)
	require.Empty(t, s.Pending())
}

func TestInitWarnsOnceWithoutRemoteSink(t *testing.T) {
	banner := &fakeSink{}
	s := newTestScheduler(&fakeLister{}, nil, banner)
	defer s.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Init(ctx)

	alerts := banner.delivered()
	require.Len(t, alerts, 1)
	require.Equal(t, KindNoRemoteSink, alerts[0].Kind)
	require.Equal(t, SeverityWarning, alerts[0].Severity)
}
