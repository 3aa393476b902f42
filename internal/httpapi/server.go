package httpapi

import (
	"context"
	"net/http"

	"github.com/MrEthical07/taskauth"
	"github.com/MrEthical07/taskauth/internal/accounts"
	"github.com/MrEthical07/taskauth/internal/logging"
	"github.com/MrEthical07/taskauth/internal/tasks"
	"github.com/MrEthical07/taskauth/middleware"
	"github.com/MrEthical07/taskauth/revocation"
)

// Engine is the part of *taskauth.Engine the API uses.
type Engine interface {
	middleware.Authenticator
	IssuePair(ctx context.Context, subjectID int64) (taskauth.TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	Revoke(ctx context.Context, token string) (revocation.Outcome, error)
	RecordRateLimit(ctx context.Context, scope string)
}

// Deps wires the collaborators. Limiter, Lockout, Metrics and Ping are optional.
type Deps struct {
	Engine   Engine
	Accounts *accounts.Service
	Tasks    *tasks.Service
	Limiter  RateLimiter
	Lockout  LoginLockout
	Logger   logging.Logger
	Metrics  http.Handler
	Ping     func(ctx context.Context) error
}

type Server struct {
	engine   Engine
	accounts *accounts.Service
	tasks    *tasks.Service
	limiter  RateLimiter
	lockout  LoginLockout
	log      logging.Logger
	metrics  http.Handler
	ping     func(ctx context.Context) error
}

func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Server{
		engine:   deps.Engine,
		accounts: deps.Accounts,
		tasks:    deps.Tasks,
		limiter:  deps.Limiter,
		lockout:  deps.Lockout,
		log:      log,
		metrics:  deps.Metrics,
		ping:     deps.Ping,
	}
}

// Handler returns the routed, fully wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	guard := Middleware(middleware.Guard(s.engine))

	authLimit := s.limit(RuleAuth)
	readLimit := s.limit(RuleTaskRead)
	writeLimit := s.limit(RuleTaskWrite)

	mux.Handle("POST /register", Chain(http.HandlerFunc(s.register), authLimit))
	mux.Handle("POST /login", Chain(http.HandlerFunc(s.login), authLimit))
	mux.Handle("POST /refresh", http.HandlerFunc(s.refresh))
	mux.Handle("POST /logout", Chain(http.HandlerFunc(s.logout), authLimit))
	mux.Handle("DELETE /me", Chain(http.HandlerFunc(s.deleteMe), guard, authLimit))

	mux.Handle("GET /todos", Chain(http.HandlerFunc(s.listTasks), guard, readLimit))
	mux.Handle("POST /todos", Chain(http.HandlerFunc(s.createTask), guard, writeLimit))
	mux.Handle("PATCH /todos/{id}", Chain(http.HandlerFunc(s.updateTask), guard, writeLimit))
	mux.Handle("PUT /todos/{id}", Chain(http.HandlerFunc(s.updateTask), guard, writeLimit))
	mux.Handle("DELETE /todos/{id}", Chain(http.HandlerFunc(s.deleteTask), guard, writeLimit))

	mux.HandleFunc("GET /healthz", s.healthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	return Chain(mux, RequestContext(), AccessLog(s.log), Recover(s.log))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			s.log.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail writes a mapped collaborator error, or logs and writes 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg, ok := statusFor(err)
	if !ok {
		s.log.Error(r.Context(), op+" failed", "error", err)
	}
	writeMessage(w, status, msg)
}
