package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/postboard/postboard/internal/config"
	"github.com/postboard/postboard/internal/posts"
	"github.com/postboard/postboard/internal/session"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (session.Session, error)
	Register(ctx context.Context, username, email, password string) (session.Session, error)
	ValidateToken(ctx context.Context, token string) (session.Session, error)
	Logout(ctx context.Context, token string) error
}

type PostService interface {
	List(ctx context.Context, accountID int64) []posts.Post
	Create(ctx context.Context, accountID int64, title, content string) (posts.Post, error)
	Get(ctx context.Context, accountID, postID int64) (posts.Post, error)
	Update(ctx context.Context, accountID, postID int64, title, content string) bool
	Delete(ctx context.Context, accountID, postID int64) bool
}

type CookieCodec interface {
	Sign(token string, expiresAt time.Time) (string, error)
	Verify(value string) (string, error)
}

type AuditLogger interface {
	Log(actor, action, target, outcome, detail string) error
}

type Deps struct {
	Auth    AuthService
	Posts   PostService
	Cookies CookieCodec
	Audit   AuditLogger
	Logger  *slog.Logger

	CookieOptions session.CookieOptions
	// TrustProxyHeaders makes audit entries record the forwarded client
	// address instead of the peer address.
	TrustProxyHeaders bool
	// Ready reports whether storage answers; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	httpServer *http.Server
}

func New(cfg config.HTTPConfig, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	handler := NewHandler(deps)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           loggingMiddleware(logger, handler),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
	}
}

type handler struct {
	auth    AuthService
	posts   PostService
	cookies CookieCodec
	audit   AuditLogger
	logger  *slog.Logger
	ready   func(ctx context.Context) error
	cookie  session.CookieOptions
	views   *views

	trustProxy bool
}

func NewHandler(deps Deps) http.Handler {
	h := &handler{
		auth:    deps.Auth,
		posts:   deps.Posts,
		cookies: deps.Cookies,
		audit:   deps.Audit,
		logger:  deps.Logger,
		ready:   deps.Ready,
		cookie:  deps.CookieOptions,
		views:   mustLoadViews(),

		trustProxy: deps.TrustProxyHeaders,
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(h.recoverer)
	r.Use(h.loadSession)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/login", h.loginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/register", h.registerForm).Methods(http.MethodGet)
	r.HandleFunc("/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.logout).Methods(http.MethodPost)

	r.Handle("/dashboard", h.requireSession(h.dashboard)).Methods(http.MethodGet)
	r.Handle("/posts/new", h.requireSession(h.newPost)).Methods(http.MethodGet)
	r.Handle("/posts", h.requireSession(h.createPost)).Methods(http.MethodPost)
	r.Handle("/posts/{id}/edit", h.requireSession(h.editPost)).Methods(http.MethodGet)
	r.Handle("/posts/{id}", h.requireSession(h.updatePost)).Methods(http.MethodPost)
	r.Handle("/posts/{id}/delete", h.requireSession(h.deletePost)).Methods(http.MethodPost)

	return r
}

func (h *handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn("readiness check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Handler returns the handler the server serves, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusFound)
}

// clientIP returns the peer address, or the first forwarded address when the
// server sits behind a trusted proxy.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
			parts := strings.Split(fwd, ",")
			return strings.TrimSpace(parts[0])
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func (h *handler) auditReq(r *http.Request, actor, action, target, outcome, detail string) {
	if h.audit == nil {
		return
	}
	parts := []string{
		"rid=" + requestIDFromContext(r.Context()),
		"ip=" + clientIP(r, h.trustProxy),
		"ua=" + strings.TrimSpace(r.UserAgent()),
	}
	if strings.TrimSpace(detail) != "" {
		parts = append(parts, "detail="+strings.TrimSpace(detail))
	}
	_ = h.audit.Log(actor, action, target, outcome, strings.Join(parts, " | "))
}
