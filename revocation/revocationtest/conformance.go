// Package revocationtest holds a behavioural test suite shared by every
// revocation.Store implementation.
package revocationtest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/taskauth/revocation"
)

// Base is the reference instant used by the suite. Stores with their own
// clock should be pinned to it.
var Base = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// Run exercises store semantics against a fresh store from newStore.
func Run(t *testing.T, newStore func(t *testing.T) revocation.Store) {
	t.Helper()

	t.Run("insert then find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		exp := Base.Add(time.Hour)

		if err := s.InsertRevocation(ctx, "fp-1", exp); err != nil {
			t.Fatalf("insert: %v", err)
		}
		entry, err := s.FindRevocation(ctx, "fp-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if entry.Fingerprint != "fp-1" || !entry.ExpiresAt.Equal(exp) {
			t.Fatalf("unexpected entry %+v", entry)
		}
	})

	t.Run("find missing", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.FindRevocation(context.Background(), "absent"); !errors.Is(err, revocation.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate insert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		if err := s.InsertRevocation(ctx, "fp-dup", Base.Add(time.Hour)); err != nil {
			t.Fatalf("first insert: %v", err)
		}
		err := s.InsertRevocation(ctx, "fp-dup", Base.Add(2*time.Hour))
		if !errors.Is(err, revocation.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		entry, err := s.FindRevocation(ctx, "fp-dup")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if !entry.ExpiresAt.Equal(Base.Add(time.Hour)) {
			t.Fatalf("duplicate insert must not overwrite, got %v", entry.ExpiresAt)
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.InsertRevocation(ctx, "fp-del", Base.Add(time.Hour))

		for i := 0; i < 2; i++ {
			if err := s.DeleteRevocation(ctx, "fp-del"); err != nil {
				t.Fatalf("delete #%d: %v", i+1, err)
			}
		}
		if _, err := s.FindRevocation(ctx, "fp-del"); !errors.Is(err, revocation.ErrNotFound) {
			t.Fatalf("expected entry gone, got %v", err)
		}
	})

	t.Run("delete expired", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.InsertRevocation(ctx, "fp-old", Base.Add(time.Minute))
		_ = s.InsertRevocation(ctx, "fp-edge", Base.Add(2*time.Minute))
		_ = s.InsertRevocation(ctx, "fp-live", Base.Add(time.Hour))

		removed, err := s.DeleteExpiredRevocations(ctx, Base.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("delete expired: %v", err)
		}
		if removed != 2 {
			t.Fatalf("expected 2 removed, got %d", removed)
		}
		if _, err := s.FindRevocation(ctx, "fp-live"); err != nil {
			t.Fatalf("live entry must survive: %v", err)
		}
		if _, err := s.FindRevocation(ctx, "fp-edge"); !errors.Is(err, revocation.ErrNotFound) {
			t.Fatalf("entry expiring exactly at now must be removed, got %v", err)
		}

		removed, err = s.DeleteExpiredRevocations(ctx, Base.Add(2*time.Minute))
		if err != nil || removed != 0 {
			t.Fatalf("second sweep: removed=%d err=%v", removed, err)
		}
	})

	t.Run("concurrent insert keeps one entry", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers = 16
		var wg sync.WaitGroup
		var ok, dup atomic.Int64
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				err := s.InsertRevocation(ctx, "fp-race", Base.Add(time.Hour))
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, revocation.ErrDuplicate):
					dup.Add(1)
				default:
					t.Errorf("unexpected insert error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		if ok.Load() != 1 || dup.Load() != workers-1 {
			t.Fatalf("expected exactly one winner, got ok=%d dup=%d", ok.Load(), dup.Load())
		}
	})
}
