package taskauth

import "context"

type clientIPContextKey struct{}
type requestIDContextKey struct{}
type subjectContextKey struct{}

// WithClientIP attaches the caller's IP to ctx for audit records.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithRequestID attaches a request correlation id to ctx for audit records.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// WithSubject stores an authenticated subject on ctx. Only the gate should call this.
func WithSubject(ctx context.Context, subject *AuthenticatedSubject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext returns the subject injected by the gate, if any.
func SubjectFromContext(ctx context.Context) (*AuthenticatedSubject, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(subjectContextKey{}).(*AuthenticatedSubject)
	return s, ok && s != nil
}

// ClientIPFromContext returns the IP attached with WithClientIP.
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
