package httpserver

import (
	"errors"
	"net/http"

	"github.com/postboard/postboard/internal/auth"
	"github.com/postboard/postboard/internal/session"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgRegistrationFailed = "Username or email already exists"
)

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index", viewData{})
}

func (h *handler) loginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login", viewData{})
}

func (h *handler) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register", viewData{})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		h.render(w, r, "login", viewData{Error: msgInvalidCredentials})
		return
	}
	username := form.get("username")

	sess, err := h.auth.Login(r.Context(), username, form.get("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.Error("login failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		}
		h.auditReq(r, username, "auth.login", "", "failed", err.Error())
		h.render(w, r, "login", viewData{Error: msgInvalidCredentials})
		return
	}

	h.dropCurrentSession(r)
	if !h.issueCookie(w, r, sess) {
		return
	}
	h.auditReq(r, sess.Username, "auth.login", "", "success", "")
	redirect(w, r, "/dashboard")
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	form, err := readForm(w, r)
	if err != nil {
		h.render(w, r, "register", viewData{Error: msgRegistrationFailed})
		return
	}
	username := form.get("username")

	sess, err := h.auth.Register(r.Context(), username, form.get("email"), form.get("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrDuplicateCredential) && !errors.Is(err, auth.ErrMissingField) {
			h.logger.Error("registration failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		}
		h.auditReq(r, username, "auth.register", "", "failed", err.Error())
		h.render(w, r, "register", viewData{Error: msgRegistrationFailed})
		return
	}

	h.dropCurrentSession(r)
	if !h.issueCookie(w, r, sess) {
		return
	}
	h.auditReq(r, sess.Username, "auth.register", "", "success", "")
	redirect(w, r, "/dashboard")
}

// logout never fails from the client's point of view.
func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	actor := ""
	if sess, ok := sessionFromContext(r.Context()); ok {
		actor = sess.Username
		if err := h.auth.Logout(r.Context(), sess.Token); err != nil {
			h.logger.Error("logout failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		}
	}
	session.ClearCookie(w, h.cookie)
	if actor != "" {
		h.auditReq(r, actor, "auth.logout", "", "success", "")
	}
	redirect(w, r, "/")
}

// dropCurrentSession discards the session the request arrived with so a new
// login never leaves the previous token alive.
func (h *handler) dropCurrentSession(r *http.Request) {
	prev, ok := sessionFromContext(r.Context())
	if !ok {
		return
	}
	if err := h.auth.Logout(r.Context(), prev.Token); err != nil {
		h.logger.Warn("drop previous session failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
}

func (h *handler) issueCookie(w http.ResponseWriter, r *http.Request, sess session.Session) bool {
	value, err := h.cookies.Sign(sess.Token, sess.ExpiresAt)
	if err != nil {
		h.logger.Error("sign session cookie failed", "request_id", requestIDFromContext(r.Context()), "error", err)
		_ = h.auth.Logout(r.Context(), sess.Token)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	session.SetCookie(w, value, sess.ExpiresAt, h.cookie)
	return true
}
