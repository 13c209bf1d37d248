// Package accounts serves the account-linking API: the OAuth handshake,
// linked account management and on-demand reads and actions.
package accounts

import (
	"context"
	"net/http"

	"feedient/internal/domain/entity"
	"feedient/internal/provider"
	"feedient/internal/provider/registry"
)

// Service is the account use case the handlers drive.
type Service interface {
	RequestToken(ctx context.Context, name entity.ProviderName) (*provider.RequestToken, error)
	Link(ctx context.Context, userID string, name entity.ProviderName, payload provider.CallbackPayload) ([]*entity.ProviderView, error)
	List(ctx context.Context, userID string) ([]*entity.ProviderView, error)
	Unlink(ctx context.Context, userID, id string) error
	Feed(ctx context.Context, userID, id string, q provider.FeedQuery) ([]*entity.Post, error)
	Post(ctx context.Context, userID, id, postID string) (*entity.Post, error)
	Comments(ctx context.Context, userID, id string, q provider.CommentQuery) (*entity.CommentThread, error)
	Notifications(ctx context.Context, userID, id, since string, limit int) ([]*entity.Notification, error)
	Pages(ctx context.Context, userID, id string) ([]*entity.Page, error)
	Do(ctx context.Context, userID, id string, name provider.ActionName, payload provider.ActionPayload) (*provider.ActionResult, error)
}

// Catalog describes the configured providers.
type Catalog interface {
	Providers() []entity.ProviderName
	Supports(name entity.ProviderName, c registry.Capability) bool
}

// DefaultMaxUpload bounds multipart action forms.
const DefaultMaxUpload = 10 << 20

// Handler serves the /v1 routes. Every route expects auth.Authz to have run.
type Handler struct {
	Svc     Service
	Catalog Catalog
	// MaxUpload bounds multipart forms; DefaultMaxUpload when zero.
	MaxUpload int64
}

// Register mounts the account API on mux.
func Register(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /v1/providers", h.ListProviders)
	mux.HandleFunc("GET /v1/providers/{provider}/request-token", h.RequestToken)
	mux.HandleFunc("POST /v1/providers/{provider}/callback", h.Callback)

	mux.HandleFunc("GET /v1/accounts", h.ListAccounts)
	mux.HandleFunc("DELETE /v1/accounts/{id}", h.Unlink)
	mux.HandleFunc("GET /v1/accounts/{id}/feed", h.Feed)
	mux.HandleFunc("GET /v1/accounts/{id}/posts/{postID}", h.Post)
	mux.HandleFunc("GET /v1/accounts/{id}/posts/{postID}/comments", h.Comments)
	mux.HandleFunc("GET /v1/accounts/{id}/notifications", h.Notifications)
	mux.HandleFunc("GET /v1/accounts/{id}/pages", h.Pages)
	mux.HandleFunc("POST /v1/accounts/{id}/actions/{action}", h.Do)
}
