package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/revocation/memstore"
)

func newGuardEngine(t *testing.T, now time.Time) *taskauth.Engine {
	t.Helper()
	cfg := taskauth.DefaultConfig()
	cfg.JWT.AccessSecret = []byte("guard-access")
	cfg.JWT.RefreshSecret = []byte("guard-refresh")
	engine, err := taskauth.New().
		WithConfig(cfg).
		WithRevocationStore(memstore.New()).
		WithClock(func() time.Time { return now }).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func echoSubject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := SubjectID(r)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"subject": id})
	})
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body["message"]
}

func TestGuardInjectsSubject(t *testing.T) {
	engine := newGuardEngine(t, time.Now())
	pair, err := engine.IssuePair(context.Background(), 21)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	rec := serve(Guard(engine)(echoSubject()), "Bearer "+pair.AccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int64
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["subject"] != 21 {
		t.Fatalf("expected subject 21, got %v", body)
	}
}

func TestGuardRejections(t *testing.T) {
	engine := newGuardEngine(t, time.Now())
	h := Guard(engine)(echoSubject())

	for _, header := range []string{"", "Bearer garbage", "Token abc", "Bearer a b"} {
		rec := serve(h, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401, got %d", header, rec.Code)
		}
		if msg := decodeMessage(t, rec); msg != "Unauthorized" {
			t.Fatalf("%q: unexpected message %q", header, msg)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Fatalf("%q: expected WWW-Authenticate header", header)
		}
	}
}

func TestGuardExpiredMessage(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pair, err := newGuardEngine(t, issuedAt).IssuePair(context.Background(), 2)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	later := newGuardEngine(t, issuedAt.Add(16*time.Minute))
	rec := serve(Guard(later)(echoSubject()), "Bearer "+pair.AccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := decodeMessage(t, rec); msg != "Token expired, please login again." {
		t.Fatalf("unexpected message %q", msg)
	}
}

type unavailable struct{}

func (unavailable) Authenticate(context.Context, string) (*taskauth.AuthenticatedSubject, error) {
	return nil, taskauth.ErrLedgerUnavailable
}

func TestGuardLedgerOutageIs503(t *testing.T) {
	rec := serve(Guard(unavailable{})(echoSubject()), "Bearer x")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
