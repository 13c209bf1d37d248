package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/provider"
	"feedient/internal/repository"

	"github.com/google/uuid"
)

// Registry is the part of the provider registry the account service uses.
type Registry interface {
	Auth(name entity.ProviderName) (*provider.AuthAPI, error)
	Feed(name entity.ProviderName) (provider.Feed, error)
	Notifications(name entity.ProviderName) (provider.Notifications, error)
	Pages(name entity.ProviderName) (provider.Pages, error)
	Actions(name entity.ProviderName) (provider.Actions, error)
}

// Service links accounts and proxies reads and actions to their provider.
type Service struct {
	Repo     repository.UserProviderRepository
	Registry Registry
}

// RequestToken starts an OAuth1 handshake.
func (s *Service) RequestToken(ctx context.Context, name entity.ProviderName) (*provider.RequestToken, error) {
	auth, err := s.Registry.Auth(name)
	if err != nil {
		return nil, err
	}
	rt, err := auth.GetRequestToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("request token: %w", err)
	}
	return rt, nil
}

// Link completes a callback and stores every profile it yields for userID.
// Linking an account that is already linked refreshes its tokens.
func (s *Service) Link(ctx context.Context, userID string, name entity.ProviderName, payload provider.CallbackPayload) ([]*entity.ProviderView, error) {
	if userID == "" {
		return nil, &entity.ValidationError{Field: "userId", Message: "is required"}
	}
	auth, err := s.Registry.Auth(name)
	if err != nil {
		return nil, err
	}

	profiles, err := auth.HandleCallback(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("handle callback: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	existing, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	views := make([]*entity.ProviderView, 0, len(profiles))
	for i, p := range profiles {
		acc := p.Account
		up := &entity.UserProvider{
			ID:             uuid.NewString(),
			UserID:         userID,
			Provider:       name,
			ProviderUserID: p.UserID,
			Account:        &acc,
			Order:          len(existing) + i,
			DateAdded:      time.Now().UTC(),
		}
		if p.Tokens != nil {
			up.Tokens = *p.Tokens
		}
		if err := up.Validate(); err != nil {
			return nil, err
		}
		if err := s.Repo.Save(ctx, up); err != nil {
			return nil, fmt.Errorf("save account: %w", err)
		}

		logging.ForUserProvider(logging.FromContext(ctx), up).Info("account linked")
		views = append(views, auth.FormatProvider(up))
	}
	return views, nil
}

// List renders the accounts of userID.
func (s *Service) List(ctx context.Context, userID string) ([]*entity.ProviderView, error) {
	ups, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	views := make([]*entity.ProviderView, 0, len(ups))
	for _, up := range ups {
		auth, err := s.Registry.Auth(up.Provider)
		if err != nil {
			// Provider no longer configured; the account is still listed.
			views = append(views, provider.FormatProvider(up))
			continue
		}
		views = append(views, auth.FormatProvider(up))
	}
	return views, nil
}

// Unlink removes the account id of userID.
func (s *Service) Unlink(ctx context.Context, userID, id string) error {
	if err := s.Repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("unlink account: %w", err)
	}
	logging.FromContext(ctx).Info("account unlinked", slog.String("user_provider_id", id))
	return nil
}

// Feed fetches the live feed of an account.
func (s *Service) Feed(ctx context.Context, userID, id string, q provider.FeedQuery) ([]*entity.Post, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	feed, err := s.Registry.Feed(up.Provider)
	if err != nil {
		return nil, err
	}
	posts, err := feed.GetFeed(ctx, up, q)
	return posts, s.check(ctx, up, err)
}

// Post fetches one post of an account.
func (s *Service) Post(ctx context.Context, userID, id, postID string) (*entity.Post, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	feed, err := s.Registry.Feed(up.Provider)
	if err != nil {
		return nil, err
	}
	post, err := feed.GetPost(ctx, up, postID)
	return post, s.check(ctx, up, err)
}

// Comments fetches the comment thread of one post.
func (s *Service) Comments(ctx context.Context, userID, id string, q provider.CommentQuery) (*entity.CommentThread, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	feed, err := s.Registry.Feed(up.Provider)
	if err != nil {
		return nil, err
	}
	thread, err := feed.GetPostComments(ctx, up, q)
	return thread, s.check(ctx, up, err)
}

// Notifications fetches the live notifications of an account.
func (s *Service) Notifications(ctx context.Context, userID, id, since string, limit int) ([]*entity.Notification, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	api, err := s.Registry.Notifications(up.Provider)
	if err != nil {
		return nil, err
	}
	notifs, err := api.GetNotifications(ctx, up, since, limit)
	return notifs, s.check(ctx, up, err)
}

// Pages lists the pages an account manages.
func (s *Service) Pages(ctx context.Context, userID, id string) ([]*entity.Page, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	api, err := s.Registry.Pages(up.Provider)
	if err != nil {
		return nil, err
	}
	pages, err := api.GetPages(ctx, up)
	return pages, s.check(ctx, up, err)
}

// Do runs a write action as the account.
func (s *Service) Do(ctx context.Context, userID, id string, name provider.ActionName, payload provider.ActionPayload) (*provider.ActionResult, error) {
	up, err := s.account(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	api, err := s.Registry.Actions(up.Provider)
	if err != nil {
		return nil, err
	}
	res, err := api.Do(ctx, up, name, payload)
	return res, s.check(ctx, up, err)
}

func (s *Service) account(ctx context.Context, userID, id string) (*entity.UserProvider, error) {
	up, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	if up == nil || up.UserID != userID {
		return nil, ErrAccountNotFound
	}
	return up, nil
}

// check marks up for re-authorization when err is an auth failure.
func (s *Service) check(ctx context.Context, up *entity.UserProvider, err error) error {
	var oauthErr *entity.OAuthError
	if !errors.As(err, &oauthErr) {
		return err
	}

	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if mErr := s.Repo.MarkNeedsReauth(markCtx, up.ID, oauthErr.Code); mErr != nil {
		logging.ForUserProvider(logging.FromContext(ctx), up).Warn("mark needs reauth failed", slog.Any("error", mErr))
	}
	return errors.Join(ErrNeedsReauth, err)
}
