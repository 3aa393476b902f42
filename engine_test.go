package taskauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/taskauth/revocation"
	"github.com/MrEthical07/taskauth/revocation/memstore"
)

var t0 = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("engine-access-secret")
	cfg.JWT.RefreshSecret = []byte("engine-refresh-secret")
	return cfg
}

type engineFixture struct {
	engine *Engine
	store  *memstore.Store
	clock  *testClock
}

func newEngineFixture(t *testing.T) engineFixture {
	t.Helper()
	clock := &testClock{now: t0}
	store := memstore.New()
	engine, err := New().
		WithConfig(testConfig()).
		WithRevocationStore(store).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engineFixture{engine: engine, store: store, clock: clock}
}

func TestAccessExpiresAfterFifteenMinutesRefreshStillWorks(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	pair, err := f.engine.IssuePair(ctx, 7)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	subject, err := f.engine.Authenticate(ctx, "Bearer "+pair.AccessToken)
	if err != nil || subject.SubjectID != 7 {
		t.Fatalf("expected subject 7, got %+v (%v)", subject, err)
	}
	if !subject.ExpiresAt.Equal(t0.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", subject.ExpiresAt)
	}

	f.clock.Advance(16 * time.Minute)

	_, err = f.engine.Authenticate(ctx, "Bearer "+pair.AccessToken)
	if !errors.Is(err, ErrExpiredCredential) {
		t.Fatalf("expected ErrExpiredCredential, got %v", err)
	}
	if msg := ReasonOf(err).Message(); msg != "Token expired, please login again." {
		t.Fatalf("unexpected message %q", msg)
	}

	access, err := f.engine.RefreshAccess(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshAccess: %v", err)
	}
	subject, err = f.engine.Authenticate(ctx, "Bearer "+access)
	if err != nil || subject.SubjectID != 7 {
		t.Fatalf("expected refreshed access for 7, got %+v (%v)", subject, err)
	}
}

func TestExpiryBoundaryIsExclusive(t *testing.T) {
	f := newEngineFixture(t)
	pair, _ := f.engine.IssuePair(context.Background(), 1)

	f.clock.Advance(15*time.Minute - time.Second)
	if _, err := f.engine.AuthenticateToken(context.Background(), pair.AccessToken); err != nil {
		t.Fatalf("expected valid one second before exp, got %v", err)
	}
	f.clock.Advance(time.Second)
	if _, err := f.engine.AuthenticateToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrExpiredCredential) {
		t.Fatalf("expected expired at exp, got %v", err)
	}
}

func TestLogoutHoldsAcrossLeeway(t *testing.T) {
	cases := []struct {
		name   string
		leeway time.Duration
		// how long after issue the logout happens; the access credential
		// must still authenticate at that point
		at time.Duration
	}{
		{"no leeway", 0, 15*time.Minute - 10*time.Second},
		{"leeway before exp", time.Minute, 10 * time.Minute},
		{"leeway past exp", time.Minute, 15*time.Minute + 30*time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.JWT.Leeway = tc.leeway
			clock := &testClock{now: t0}
			engine, err := New().
				WithConfig(cfg).
				WithRevocationStore(memstore.New()).
				WithClock(clock.Now).
				Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			defer engine.Close()
			ctx := context.Background()

			pair, _ := engine.IssuePair(ctx, 42)
			clock.Advance(tc.at)
			if _, err := engine.AuthenticateToken(ctx, pair.AccessToken); err != nil {
				t.Fatalf("access must still authenticate before logout: %v", err)
			}

			if err := engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
				t.Fatalf("Logout: %v", err)
			}
			if revoked, err := engine.IsRevoked(ctx, pair.AccessToken); err != nil || !revoked {
				t.Fatalf("IsRevoked = %v (%v), want true", revoked, err)
			}
			if _, err := engine.AuthenticateToken(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidCredential) {
				t.Fatalf("revoked access authenticated: %v", err)
			}

			// through the rest of the acceptance window
			clock.Advance(15*time.Minute + tc.leeway - tc.at - time.Second)
			if _, err := engine.AuthenticateToken(ctx, pair.AccessToken); err == nil {
				t.Fatal("revoked access authenticated at the end of its window")
			}
		})
	}
}

func TestLogoutRevokesBothCredentials(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	pair, _ := f.engine.IssuePair(ctx, 3)

	if err := f.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	_, err := f.engine.Authenticate(ctx, "Bearer "+pair.AccessToken)
	if !errors.Is(err, ErrInvalidCredential) || ReasonOf(err).Message() != "Unauthorized" {
		t.Fatalf("expected revoked access rejected as Unauthorized, got %v", err)
	}
	if _, err := f.engine.RefreshAccess(ctx, pair.RefreshToken); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected revoked refresh rejected, got %v", err)
	}
	if f.store.Len() != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", f.store.Len())
	}

	if err := f.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if f.store.Len() != 2 {
		t.Fatalf("repeat logout must not add entries, got %d", f.store.Len())
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricRevokeAlreadyRevoked]; got != 2 {
		t.Fatalf("expected 2 already-revoked outcomes, got %d", got)
	}
}

func TestLogoutWithGarbageSucceeds(t *testing.T) {
	f := newEngineFixture(t)
	if err := f.engine.Logout(context.Background(), "garbage", ""); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatalf("undecodable tokens must not be stored, got %d", f.store.Len())
	}
}

func TestLogoutIgnoresSubjectMismatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	a, _ := f.engine.IssuePair(ctx, 1)
	b, _ := f.engine.IssuePair(ctx, 2)

	if err := f.engine.Logout(ctx, a.AccessToken, b.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := f.engine.RefreshAccess(ctx, b.RefreshToken); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected b refresh revoked, got %v", err)
	}
}

func TestGateRejections(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	pair, _ := f.engine.IssuePair(ctx, 11)

	cases := []struct {
		name   string
		header string
		want   error
		reason RejectionReason
	}{
		{"no header", "", ErrMissingCredential, ReasonMissing},
		{"garbage token", "Bearer garbage", ErrMalformedCredential, ReasonMalformed},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ErrMalformedCredential, ReasonMalformed},
		{"empty token", "Bearer ", ErrMalformedCredential, ReasonMalformed},
		{"refresh as access", "Bearer " + pair.RefreshToken, ErrInvalidCredential, ReasonInvalid},
		{"tampered", "Bearer " + pair.AccessToken[:len(pair.AccessToken)-2] + "xx", ErrInvalidCredential, ReasonInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Authenticate(ctx, tc.header)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if got := ReasonOf(err); got != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, got)
			}
			if ReasonOf(err).Message() != "Unauthorized" {
				t.Fatalf("expected Unauthorized message, got %q", ReasonOf(err).Message())
			}
		})
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newEngineFixture(t)
	pair, _ := f.engine.IssuePair(context.Background(), 5)
	if _, err := f.engine.RefreshAccess(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	f := newEngineFixture(t)
	pair, _ := f.engine.IssuePair(context.Background(), 5)
	f.clock.Advance(31 * 24 * time.Hour)
	if _, err := f.engine.RefreshAccess(context.Background(), pair.RefreshToken); !errors.Is(err, ErrExpiredCredential) {
		t.Fatalf("expected ErrExpiredCredential, got %v", err)
	}
}

func TestIssuePairRejectsNonPositiveSubject(t *testing.T) {
	f := newEngineFixture(t)
	if _, err := f.engine.IssuePair(context.Background(), 0); !errors.Is(err, ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}

func TestConcurrentRevokeLeavesOneEntry(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	pair, _ := f.engine.IssuePair(ctx, 9)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		recorded int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.engine.Revoke(ctx, pair.AccessToken)
			if err != nil {
				t.Errorf("Revoke: %v", err)
				return
			}
			if outcome == revocation.OutcomeRecorded {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if recorded != 1 {
		t.Fatalf("expected exactly one recorded outcome, got %d", recorded)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected one entry, got %d", f.store.Len())
	}
}

func TestSweepRemovesOnlyStaleEntries(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	pair, _ := f.engine.IssuePair(ctx, 4)
	if err := f.engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	f.clock.Advance(20 * time.Minute)
	removed, err := f.engine.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 || f.store.Len() != 1 {
		t.Fatalf("expected access entry swept, removed=%d len=%d", removed, f.store.Len())
	}
	if revoked, _ := f.engine.IsRevoked(ctx, pair.RefreshToken); !revoked {
		t.Fatal("refresh entry must survive the sweep")
	}
	if got := f.engine.MetricsSnapshot().Counters[MetricSweepRemoved]; got != 1 {
		t.Fatalf("expected sweep metric 1, got %d", got)
	}
}

type downStore struct{}

func (downStore) InsertRevocation(context.Context, string, time.Time) error {
	return revocation.ErrUnavailable
}
func (downStore) FindRevocation(context.Context, string) (revocation.Entry, error) {
	return revocation.Entry{}, revocation.ErrUnavailable
}
func (downStore) DeleteRevocation(context.Context, string) error { return revocation.ErrUnavailable }
func (downStore) DeleteExpiredRevocations(context.Context, time.Time) (int64, error) {
	return 0, revocation.ErrUnavailable
}

func TestLedgerOutageFailsClosed(t *testing.T) {
	engine, err := New().WithConfig(testConfig()).WithRevocationStore(downStore{}).WithClock(func() time.Time { return t0 }).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ctx := context.Background()
	pair, err := engine.IssuePair(ctx, 1)
	if err != nil {
		t.Fatalf("issuing must not touch the ledger: %v", err)
	}

	_, err = engine.Authenticate(ctx, "Bearer "+pair.AccessToken)
	if !errors.Is(err, ErrLedgerUnavailable) || ReasonOf(err) != ReasonUnavailable {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
	if _, err := engine.RefreshAccess(ctx, pair.RefreshToken); !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable on refresh, got %v", err)
	}
	if err := engine.Logout(ctx, pair.AccessToken, pair.RefreshToken); !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable on logout, got %v", err)
	}
	if _, err := engine.Authenticate(ctx, ""); !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("header checks precede the ledger, got %v", err)
	}
}

func TestAuditEventsEmitted(t *testing.T) {
	sink := NewChannelSink(16)
	cfg := testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = false

	engine, err := New().WithConfig(cfg).WithRevocationStore(memstore.New()).WithAuditSink(sink).WithClock(func() time.Time { return t0 }).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx := WithRequestID(WithClientIP(context.Background(), "10.0.0.1"), "req-1")
	pair, _ := engine.IssuePair(ctx, 8)
	_, _ = engine.Authenticate(ctx, "Bearer nope")
	_ = engine.Logout(ctx, pair.AccessToken, pair.RefreshToken)
	engine.Close()

	var types []string
	for len(sink.Events()) > 0 {
		e := <-sink.Events()
		if e.IP != "10.0.0.1" || e.RequestID != "req-1" {
			t.Fatalf("context values not propagated: %+v", e)
		}
		types = append(types, e.Type)
	}
	got := strings.Join(types, ",")
	if got != "credential_issued,gate_rejected,logout" {
		t.Fatalf("unexpected event sequence %q", got)
	}
}

func TestNilEngine(t *testing.T) {
	var e *Engine
	if _, err := e.IssuePair(context.Background(), 1); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(context.Background(), "Bearer x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
	if e.AuditDropped() != 0 {
		t.Fatal("expected zero drops")
	}
}

func TestSecurityReportReflectsConfig(t *testing.T) {
	f := newEngineFixture(t)
	r := f.engine.SecurityReport()

	if r.SigningAlgorithm != "HS256" {
		t.Fatalf("alg = %q", r.SigningAlgorithm)
	}
	if r.AccessTTL != 15*time.Minute || r.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected ttls %v / %v", r.AccessTTL, r.RefreshTTL)
	}
	if !r.SweepEnabled || r.RefreshRotation {
		t.Fatalf("unexpected report %+v", r)
	}
	// test secrets are short
	if !r.WeakSecrets {
		t.Fatal("expected weak secret warning")
	}
}

func TestRunSweeperStopsWithContext(t *testing.T) {
	cfg := testConfig()
	cfg.Revocation.SweepInterval = 0
	disabled, err := New().WithConfig(cfg).WithRevocationStore(memstore.New()).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer disabled.Close()
	// zero interval returns without blocking
	disabled.RunSweeper(context.Background())

	f := newEngineFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.engine.RunSweeper(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSweeper did not return after cancel")
	}
}
