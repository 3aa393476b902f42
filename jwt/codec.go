package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects the secret and lifetime used for a credential.
type Kind string

const (
	// KindAccess marks short-lived credentials presented on protected requests.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived credentials that may only mint new access credentials.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed is returned when a token cannot be parsed as a compact JWS.
	ErrMalformed = errors.New("malformed credential")
	// ErrInvalid is returned on signature, algorithm, kind or claim failures.
	ErrInvalid = errors.New("invalid credential")
	// ErrExpired is returned for a correctly signed credential whose exp is not after now.
	ErrExpired = errors.New("expired credential")
)

// MaxLeeway bounds the clock skew a Codec will tolerate on exp.
const MaxLeeway = 2 * time.Minute

// Config holds the static signing material and lifetimes of a [Codec].
//
// Both secrets are mandatory and must differ, so a credential of one kind
// can never verify as the other.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the payload carried by every credential.
type Claims struct {
	Kind Kind `json:"typ"`
	jwt.RegisteredClaims
}

// SubjectID returns the integer subject encoded in sub.
func (c *Claims) SubjectID() (int64, error) {
	if c == nil {
		return 0, ErrInvalid
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject is not a positive integer", ErrInvalid)
	}
	return id, nil
}

// IssuedAtTime returns iat as UTC, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c == nil || c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time.UTC()
}

// ExpiresAtTime returns exp as UTC, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

// Algorithm names the only signing algorithm a Codec issues or accepts.
var Algorithm = jwt.SigningMethodHS256.Alg()

// Codec signs and verifies HS256 credentials. It holds no mutable state
// and is safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access secret required")
	}
	if len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("refresh secret required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > MaxLeeway {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.AccessSecret = append([]byte(nil), cfg.AccessSecret...)
	cfg.RefreshSecret = append([]byte(nil), cfg.RefreshSecret...)

	return &Codec{config: cfg}, nil
}

// Lifetime returns the configured lifetime for kind.
func (c *Codec) Lifetime(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

// Encode signs a credential for subject that expires one lifetime after now.
// Identical inputs produce identical tokens.
func (c *Codec) Encode(subject string, kind Kind, now time.Time) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("empty subject")
	}
	secret, err := c.secret(kind)
	if err != nil {
		return "", err
	}

	now = now.UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.Lifetime(kind))),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Decode verifies token as a credential of kind at instant now.
//
// The signature is checked before any claim is trusted. Failures wrap
// exactly one of [ErrMalformed], [ErrInvalid] or [ErrExpired].
func (c *Codec) Decode(token string, kind Kind, now time.Time) (*Claims, error) {
	secret, err := c.secret(kind)
	if err != nil {
		return nil, err
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalid
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: kind mismatch", ErrInvalid)
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, err
	}

	return claims, nil
}

// DecodeAny tries every credential kind and returns the first that verifies.
// When none does, the access-kind failure is returned.
func (c *Codec) DecodeAny(token string, now time.Time) (*Claims, error) {
	claims, err := c.Decode(token, KindAccess, now)
	if err == nil {
		return claims, nil
	}
	if claims, refreshErr := c.Decode(token, KindRefresh, now); refreshErr == nil {
		return claims, nil
	}
	return nil, err
}

// AcceptedUntil is the last instant at which Decode still accepts a
// credential with these claims: exp plus the configured leeway.
func (c *Codec) AcceptedUntil(claims *Claims) time.Time {
	exp := claims.ExpiresAtTime()
	if exp.IsZero() {
		return exp
	}
	return exp.Add(c.config.Leeway)
}

func (c *Codec) secret(kind Kind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return c.config.AccessSecret, nil
	case KindRefresh:
		return c.config.RefreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown credential kind %q", kind)
	}
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}
