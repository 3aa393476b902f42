package revocation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/taskauth/jwt"
	"github.com/MrEthical07/taskauth/revocation"
	"github.com/MrEthical07/taskauth/revocation/memstore"
)

var t0 = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type ledgerFixture struct {
	ledger *revocation.Ledger
	store  *memstore.Store
	codec  *jwt.Codec
	clock  *fakeClock
}

func newLedgerFixture(t *testing.T) ledgerFixture {
	return newLedgerFixtureWithLeeway(t, 0)
}

func newLedgerFixtureWithLeeway(t *testing.T, leeway time.Duration) ledgerFixture {
	t.Helper()
	codec, err := jwt.NewCodec(jwt.Config{
		AccessSecret:  []byte("ledger-access"),
		RefreshSecret: []byte("ledger-refresh"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Leeway:        leeway,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	clock := &fakeClock{now: t0}
	store := memstore.New()
	ledger, err := revocation.NewLedger(store, codec, clock.Now)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	return ledgerFixture{ledger: ledger, store: store, codec: codec, clock: clock}
}

func TestFingerprintIsLowercaseSHA256Hex(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := revocation.Fingerprint("abc"); got != want {
		t.Fatalf("fingerprint mismatch: got %s", got)
	}
}

func TestRevokeThenIsRevoked(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)

	revoked, err := f.ledger.IsRevoked(ctx, token)
	if err != nil || revoked {
		t.Fatalf("fresh token: revoked=%v err=%v", revoked, err)
	}

	outcome, err := f.ledger.Revoke(ctx, token)
	if err != nil || outcome != revocation.OutcomeRecorded {
		t.Fatalf("revoke: outcome=%v err=%v", outcome, err)
	}

	revoked, err = f.ledger.IsRevoked(ctx, token)
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got revoked=%v err=%v", revoked, err)
	}

	entry, err := f.store.FindRevocation(ctx, revocation.Fingerprint(token))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !entry.ExpiresAt.Equal(t0.Add(15 * time.Minute)) {
		t.Fatalf("entry expiry must be the token exp, got %v", entry.ExpiresAt)
	}
}

func TestRevokeInsideLeewayWindowHolds(t *testing.T) {
	f := newLedgerFixtureWithLeeway(t, time.Minute)
	ctx := context.Background()
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)

	// past exp, still accepted by the codec
	f.clock.Advance(15*time.Minute + 30*time.Second)
	outcome, err := f.ledger.Revoke(ctx, token)
	if err != nil || outcome != revocation.OutcomeRecorded {
		t.Fatalf("revoke: outcome=%v err=%v", outcome, err)
	}
	if revoked, err := f.ledger.IsRevoked(ctx, token); err != nil || !revoked {
		t.Fatalf("expected revoked inside leeway, got revoked=%v err=%v", revoked, err)
	}

	entry, _ := f.store.FindRevocation(ctx, revocation.Fingerprint(token))
	if want := t0.Add(16 * time.Minute); !entry.ExpiresAt.Equal(want) {
		t.Fatalf("entry expiry = %v, want exp+leeway %v", entry.ExpiresAt, want)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	token, _ := f.codec.Encode("42", jwt.KindRefresh, t0)

	first, _ := f.ledger.Revoke(ctx, token)
	second, err := f.ledger.Revoke(ctx, token)
	if err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	if first != revocation.OutcomeRecorded || second != revocation.OutcomeAlreadyRevoked {
		t.Fatalf("unexpected outcomes %v then %v", first, second)
	}
	if n := f.store.Len(); n != 1 {
		t.Fatalf("expected one entry, got %d", n)
	}
}

func TestRevokeUndecodableTokenIsSilentNoOp(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	foreign, err := jwtForeign()
	if err != nil {
		t.Fatalf("foreign token: %v", err)
	}
	for _, token := range []string{"garbage", "", foreign} {
		outcome, err := f.ledger.Revoke(ctx, token)
		if err != nil || outcome != revocation.OutcomeSkipped {
			t.Fatalf("token %q: outcome=%v err=%v", token, outcome, err)
		}
	}
	if n := f.store.Len(); n != 0 {
		t.Fatalf("nothing may be written, got %d entries", n)
	}
}

func TestRevokeExpiredTokenIsSkipped(t *testing.T) {
	f := newLedgerFixture(t)
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)
	f.clock.Advance(20 * time.Minute)

	outcome, err := f.ledger.Revoke(context.Background(), token)
	if err != nil || outcome != revocation.OutcomeSkipped {
		t.Fatalf("outcome=%v err=%v", outcome, err)
	}
}

func TestIsRevokedLazilyDeletesStaleEntry(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)
	if _, err := f.ledger.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	f.clock.Advance(15 * time.Minute)
	revoked, err := f.ledger.IsRevoked(ctx, token)
	if err != nil || revoked {
		t.Fatalf("stale entry must read as absent: revoked=%v err=%v", revoked, err)
	}
	if _, err := f.store.FindRevocation(ctx, revocation.Fingerprint(token)); !errors.Is(err, revocation.ErrNotFound) {
		t.Fatalf("stale entry must be deleted, got %v", err)
	}
}

func TestSweepRemovesOnlyStaleEntries(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	access, _ := f.codec.Encode("1", jwt.KindAccess, t0)
	refresh, _ := f.codec.Encode("1", jwt.KindRefresh, t0)
	_, _ = f.ledger.Revoke(ctx, access)
	_, _ = f.ledger.Revoke(ctx, refresh)

	f.clock.Advance(time.Hour)
	removed, err := f.ledger.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected only the access entry removed, got %d", removed)
	}
	if revoked, _ := f.ledger.IsRevoked(ctx, refresh); !revoked {
		t.Fatal("refresh entry must survive the sweep")
	}
}

func TestConcurrentRevokeLeavesOneEntry(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := f.ledger.Revoke(ctx, token); err != nil {
				errs <- err
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent revoke returned error: %v", err)
	}
	if n := f.store.Len(); n != 1 {
		t.Fatalf("expected exactly one entry, got %d", n)
	}
}

type failingStore struct{ revocation.Store }

var errBackend = errors.New("backend down")

func (failingStore) FindRevocation(context.Context, string) (revocation.Entry, error) {
	return revocation.Entry{}, errBackend
}

func TestBackendFailuresPropagate(t *testing.T) {
	f := newLedgerFixture(t)
	ledger, err := revocation.NewLedger(failingStore{Store: f.store}, f.codec, f.clock.Now)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)

	if _, err := ledger.IsRevoked(context.Background(), token); !errors.Is(err, errBackend) {
		t.Fatalf("IsRevoked: expected backend error, got %v", err)
	}
	if _, err := ledger.Revoke(context.Background(), token); !errors.Is(err, errBackend) {
		t.Fatalf("Revoke: expected backend error, got %v", err)
	}
}

type racingStore struct {
	*memstore.Store
}

// FindRevocation always misses, as if a concurrent writer inserted between
// the lookup and the insert.
func (racingStore) FindRevocation(context.Context, string) (revocation.Entry, error) {
	return revocation.Entry{}, revocation.ErrNotFound
}

func TestLostInsertRaceIsSwallowed(t *testing.T) {
	f := newLedgerFixture(t)
	ledger, _ := revocation.NewLedger(racingStore{Store: f.store}, f.codec, f.clock.Now)
	token, _ := f.codec.Encode("42", jwt.KindAccess, t0)

	if _, err := ledger.Revoke(context.Background(), token); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	outcome, err := ledger.Revoke(context.Background(), token)
	if err != nil || outcome != revocation.OutcomeAlreadyRevoked {
		t.Fatalf("duplicate insert must be swallowed: outcome=%v err=%v", outcome, err)
	}
}

func TestNewLedgerValidation(t *testing.T) {
	f := newLedgerFixture(t)
	if _, err := revocation.NewLedger(nil, f.codec, nil); err == nil {
		t.Fatal("expected nil store rejected")
	}
	if _, err := revocation.NewLedger(f.store, nil, nil); err == nil {
		t.Fatal("expected nil decoder rejected")
	}
}

func jwtForeign() (string, error) {
	other, err := jwt.NewCodec(jwt.Config{
		AccessSecret:  []byte("someone-elses-access"),
		RefreshSecret: []byte("someone-elses-refresh"),
		AccessTTL:     time.Hour,
		RefreshTTL:    2 * time.Hour,
	})
	if err != nil {
		return "", err
	}
	return other.Encode("42", jwt.KindAccess, t0)
}
