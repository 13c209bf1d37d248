package accounts

import (
	"net/http"

	"feedient/internal/handler/http/respond"
	"feedient/internal/provider"
)

// ListAccounts lists the caller's linked accounts.
// @Summary      List linked accounts
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} entity.ProviderView
// @Failure      401 {object} map[string]string
// @Router       /v1/accounts [get]
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	views, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, views)
}

// Unlink removes a linked account.
// @Summary      Unlink account
// @Tags         accounts
// @Security     BearerAuth
// @Param        id path string true "Account id"
// @Success      204
// @Failure      404 {object} map[string]string "Account not found"
// @Router       /v1/accounts/{id} [delete]
func (h *Handler) Unlink(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Unlink(r.Context(), userID, r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed fetches the live feed of an account.
// @Summary      Account feed
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id    path  string true  "Account id"
// @Param        since query string false "Cursor of the newest post already seen"
// @Param        until query string false "Cursor to page backwards from"
// @Param        limit query int    false "Page size"
// @Success      200 {array} entity.Post
// @Failure      401 {object} map[string]string "Account needs re-authorization"
// @Failure      404 {object} map[string]string "Account not found"
// @Failure      429 {object} map[string]string "Provider rate limit reached"
// @Failure      502 {object} map[string]string "Provider error"
// @Router       /v1/accounts/{id}/feed [get]
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	q := provider.FeedQuery{
		Since: r.URL.Query().Get("since"),
		Until: r.URL.Query().Get("until"),
		Limit: limit,
	}

	posts, err := h.Svc.Feed(r.Context(), userID, r.PathValue("id"), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, posts)
}

// Post fetches one post.
// @Summary      Account post
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id     path string true "Account id"
// @Param        postID path string true "Provider post id"
// @Success      200 {object} entity.Post
// @Failure      404 {object} map[string]string "Account not found"
// @Router       /v1/accounts/{id}/posts/{postID} [get]
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	post, err := h.Svc.Post(r.Context(), userID, r.PathValue("id"), r.PathValue("postID"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, post)
}

// Comments fetches the comment thread of a post.
// @Summary      Post comments
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id      path  string true  "Account id"
// @Param        postID  path  string true  "Provider post id"
// @Param        before  query string false "Only comments before this time"
// @Param        limit   query int    false "Page size"
// @Param        user_id query string false "Provider user id of the post author"
// @Success      200 {object} entity.CommentThread
// @Failure      404 {object} map[string]string "Account not found"
// @Router       /v1/accounts/{id}/posts/{postID}/comments [get]
func (h *Handler) Comments(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	q := provider.CommentQuery{
		PostID:     r.PathValue("postID"),
		BeforeTime: r.URL.Query().Get("before"),
		Limit:      limit,
		UserID:     r.URL.Query().Get("user_id"),
	}

	thread, err := h.Svc.Comments(r.Context(), userID, r.PathValue("id"), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, thread)
}

// Notifications fetches the live notifications of an account.
// @Summary      Account notifications
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id    path  string true  "Account id"
// @Param        since query string false "Cursor of the newest notification already seen"
// @Param        limit query int    false "Page size"
// @Success      200 {array} entity.Notification
// @Failure      501 {object} map[string]string "Provider has no notifications"
// @Router       /v1/accounts/{id}/notifications [get]
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		fail(w, r, err)
		return
	}

	notifs, err := h.Svc.Notifications(r.Context(), userID, r.PathValue("id"), r.URL.Query().Get("since"), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, notifs)
}

// Pages lists the pages an account manages.
// @Summary      Account pages
// @Tags         accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id path string true "Account id"
// @Success      200 {array} entity.Page
// @Failure      501 {object} map[string]string "Provider has no pages"
// @Router       /v1/accounts/{id}/pages [get]
func (h *Handler) Pages(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	pages, err := h.Svc.Pages(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, pages)
}
