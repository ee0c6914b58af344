package httpserver

import (
	"net/http"
	"strconv"

	"github.com/postboard/postboard/internal/session"
)

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request, sess session.Session) {
	h.render(w, r, "dashboard", viewData{Posts: h.posts.List(r.Context(), sess.AccountID)})
}

func (h *handler) newPost(w http.ResponseWriter, r *http.Request, _ session.Session) {
	h.render(w, r, "new-post", viewData{})
}

// createPost redirects to the dashboard whether or not the insert succeeded;
// failures are logged by the post service.
func (h *handler) createPost(w http.ResponseWriter, r *http.Request, sess session.Session) {
	form, err := readForm(w, r)
	if err != nil {
		h.logger.Warn("bad post form", "request_id", requestIDFromContext(r.Context()), "error", err)
		redirect(w, r, "/dashboard")
		return
	}

	p, err := h.posts.Create(r.Context(), sess.AccountID, form.get("title"), form.get("content"))
	if err != nil {
		h.auditReq(r, sess.Username, "post.create", "", "failed", err.Error())
	} else {
		h.auditReq(r, sess.Username, "post.create", strconv.FormatInt(p.ID, 10), "success", "")
	}
	redirect(w, r, "/dashboard")
}

func (h *handler) editPost(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := postIDFromPath(r)
	if !ok {
		redirect(w, r, "/dashboard")
		return
	}
	p, err := h.posts.Get(r.Context(), sess.AccountID, id)
	if err != nil {
		redirect(w, r, "/dashboard")
		return
	}
	h.render(w, r, "edit-post", viewData{Post: p})
}

// updatePost and deletePost redirect the same way whether the post was
// changed, missing, or owned by someone else.
func (h *handler) updatePost(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := postIDFromPath(r)
	if !ok {
		redirect(w, r, "/dashboard")
		return
	}
	form, err := readForm(w, r)
	if err != nil {
		h.logger.Warn("bad post form", "request_id", requestIDFromContext(r.Context()), "error", err)
		redirect(w, r, "/dashboard")
		return
	}

	changed := h.posts.Update(r.Context(), sess.AccountID, id, form.get("title"), form.get("content"))
	h.auditReq(r, sess.Username, "post.update", strconv.FormatInt(id, 10), outcome(changed), "")
	redirect(w, r, "/dashboard")
}

func (h *handler) deletePost(w http.ResponseWriter, r *http.Request, sess session.Session) {
	id, ok := postIDFromPath(r)
	if !ok {
		redirect(w, r, "/dashboard")
		return
	}

	changed := h.posts.Delete(r.Context(), sess.AccountID, id)
	h.auditReq(r, sess.Username, "post.delete", strconv.FormatInt(id, 10), outcome(changed), "")
	redirect(w, r, "/dashboard")
}

func outcome(changed bool) string {
	if changed {
		return "success"
	}
	return "noop"
}
