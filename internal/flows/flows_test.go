package flows

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/taskauth/jwt"
	"github.com/MrEthical07/taskauth/revocation"
)

type stubChecker struct {
	revoked map[string]bool
	err     error
	calls   int
}

func (s *stubChecker) IsRevoked(_ context.Context, token string) (bool, error) {
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[token], nil
}

type stubRevoker struct {
	errs map[string]error
	seen []string
}

func (s *stubRevoker) Revoke(_ context.Context, token string) (revocation.Outcome, error) {
	s.seen = append(s.seen, token)
	if err := s.errs[token]; err != nil {
		return 0, err
	}
	return revocation.OutcomeRecorded, nil
}

var flowNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFlowCodec(t *testing.T) *jwt.Codec {
	t.Helper()
	c, err := jwt.NewCodec(jwt.Config{
		AccessSecret:  []byte("flow-access-secret-0123456789abcdef"),
		RefreshSecret: []byte("flow-refresh-secret-0123456789abcdef"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func encodeAt(c *jwt.Codec, now time.Time) EncodeFunc {
	return func(subject string, kind jwt.Kind) (string, error) {
		return c.Encode(subject, kind, now)
	}
}

func decodeAt(c *jwt.Codec, kind jwt.Kind, now time.Time) DecodeFunc {
	return func(token string) (*jwt.Claims, error) {
		return c.Decode(token, kind, now)
	}
}

func TestParseBearer(t *testing.T) {
	cases := []struct {
		in    string
		token string
		ok    bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"Bearer ", "", false},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
		{"Bearer  abc", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		token, ok := ParseBearer(tc.in)
		if ok != tc.ok || token != tc.token {
			t.Fatalf("ParseBearer(%q) = (%q, %v), want (%q, %v)", tc.in, token, ok, tc.token, tc.ok)
		}
	}
}

func TestRunIssuePair(t *testing.T) {
	c := newFlowCodec(t)
	res := RunIssuePair(42, IssueDeps{Encode: encodeAt(c, flowNow)})
	if res.Failure != IssueFailureNone {
		t.Fatalf("unexpected failure %v: %v", res.Failure, res.Err)
	}
	if res.AccessToken == res.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}
	if _, err := c.Decode(res.AccessToken, jwt.KindAccess, flowNow); err != nil {
		t.Fatalf("access decode: %v", err)
	}
	if _, err := c.Decode(res.RefreshToken, jwt.KindRefresh, flowNow); err != nil {
		t.Fatalf("refresh decode: %v", err)
	}

	if res := RunIssuePair(0, IssueDeps{Encode: encodeAt(c, flowNow)}); res.Failure != IssueFailureSubject {
		t.Fatalf("expected subject failure, got %v", res.Failure)
	}

	boom := errors.New("boom")
	res = RunIssuePair(1, IssueDeps{Encode: func(string, jwt.Kind) (string, error) { return "", boom }})
	if res.Failure != IssueFailureEncodeAccess || !errors.Is(res.Err, boom) {
		t.Fatalf("expected encode failure, got %v (%v)", res.Failure, res.Err)
	}
}

func TestRunAuthenticate(t *testing.T) {
	c := newFlowCodec(t)
	pair := RunIssuePair(7, IssueDeps{Encode: encodeAt(c, flowNow)})

	checker := &stubChecker{revoked: map[string]bool{}}
	deps := AuthenticateDeps{Ledger: checker, DecodeAccess: decodeAt(c, jwt.KindAccess, flowNow)}

	res := RunAuthenticate(context.Background(), "Bearer "+pair.AccessToken, deps)
	if res.Failure != AuthenticateFailureNone || res.SubjectID != 7 {
		t.Fatalf("expected subject 7, got %+v", res)
	}

	cases := []struct {
		name   string
		header string
		want   AuthenticateFailureKind
	}{
		{"missing", "", AuthenticateFailureMissing},
		{"bad scheme", "Token " + pair.AccessToken, AuthenticateFailureMalformedHeader},
		{"garbage", "Bearer garbage", AuthenticateFailureMalformed},
		{"refresh presented", "Bearer " + pair.RefreshToken, AuthenticateFailureInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RunAuthenticate(context.Background(), tc.header, deps); got.Failure != tc.want {
				t.Fatalf("got %v, want %v", got.Failure, tc.want)
			}
		})
	}

	expired := AuthenticateDeps{Ledger: checker, DecodeAccess: decodeAt(c, jwt.KindAccess, flowNow.Add(16*time.Minute))}
	if got := RunAuthenticate(context.Background(), "Bearer "+pair.AccessToken, expired); got.Failure != AuthenticateFailureExpired {
		t.Fatalf("expected expired, got %v", got.Failure)
	}

	checker.revoked[pair.AccessToken] = true
	if got := RunAuthenticate(context.Background(), "Bearer "+pair.AccessToken, deps); got.Failure != AuthenticateFailureRevoked {
		t.Fatalf("expected revoked, got %v", got.Failure)
	}
}

func TestRunAuthenticateLedgerFailureSkipsDecode(t *testing.T) {
	decoded := false
	deps := AuthenticateDeps{
		Ledger: &stubChecker{err: revocation.ErrUnavailable},
		DecodeAccess: func(string) (*jwt.Claims, error) {
			decoded = true
			return nil, nil
		},
	}
	res := RunAuthenticate(context.Background(), "Bearer token", deps)
	if res.Failure != AuthenticateFailureLedger || !errors.Is(res.Err, revocation.ErrUnavailable) {
		t.Fatalf("expected ledger failure, got %+v", res)
	}
	if decoded {
		t.Fatal("decode must not run when the ledger is unavailable")
	}
}

func TestRunRefresh(t *testing.T) {
	c := newFlowCodec(t)
	pair := RunIssuePair(9, IssueDeps{Encode: encodeAt(c, flowNow)})
	later := flowNow.Add(time.Hour)

	checker := &stubChecker{revoked: map[string]bool{}}
	deps := RefreshDeps{
		Ledger:        checker,
		DecodeRefresh: decodeAt(c, jwt.KindRefresh, later),
		Encode:        encodeAt(c, later),
	}

	res := RunRefresh(context.Background(), pair.RefreshToken, deps)
	if res.Failure != RefreshFailureNone || res.SubjectID != 9 {
		t.Fatalf("unexpected result %+v", res)
	}
	claims, err := c.Decode(res.AccessToken, jwt.KindAccess, later)
	if err != nil {
		t.Fatalf("decode new access: %v", err)
	}
	if !claims.ExpiresAtTime().Equal(later.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", claims.ExpiresAtTime())
	}

	if got := RunRefresh(context.Background(), pair.AccessToken, deps); got.Failure != RefreshFailureInvalid {
		t.Fatalf("access token used as refresh: got %v", got.Failure)
	}
	if got := RunRefresh(context.Background(), "nope", deps); got.Failure != RefreshFailureMalformed {
		t.Fatalf("garbage refresh: got %v", got.Failure)
	}

	stale := deps
	stale.DecodeRefresh = decodeAt(c, jwt.KindRefresh, flowNow.Add(25*time.Hour))
	if got := RunRefresh(context.Background(), pair.RefreshToken, stale); got.Failure != RefreshFailureExpired {
		t.Fatalf("expired refresh: got %v", got.Failure)
	}

	checker.revoked[pair.RefreshToken] = true
	if got := RunRefresh(context.Background(), pair.RefreshToken, deps); got.Failure != RefreshFailureRevoked {
		t.Fatalf("revoked refresh: got %v", got.Failure)
	}
}

func TestRunLogoutAttemptsBoth(t *testing.T) {
	accessErr := errors.New("access store down")
	r := &stubRevoker{errs: map[string]error{"a": accessErr}}

	res := RunLogout(context.Background(), "a", "r", LogoutDeps{Ledger: r})
	if strings.Join(r.seen, ",") != "a,r" {
		t.Fatalf("expected both revocations attempted, saw %v", r.seen)
	}
	if !errors.Is(res.Err, accessErr) {
		t.Fatalf("expected joined error to include access failure, got %v", res.Err)
	}
	if res.RefreshOutcome != revocation.OutcomeRecorded {
		t.Fatalf("expected refresh recorded, got %v", res.RefreshOutcome)
	}
}
