// Package poll periodically pulls the feed and notifications of every linked
// account, keeps the per-account pagination cursors and hands new items to a
// Sink.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/observability/logging"
	"feedient/internal/observability/metrics"
	"feedient/internal/observability/slo"
	"feedient/internal/pkg/requestid"
	"feedient/internal/provider"
	"feedient/internal/repository"
	"feedient/internal/resilience/retry"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Registry builds fresh facades per linked account. *registry.Registry
// satisfies it.
type Registry interface {
	Feed(name entity.ProviderName) (provider.Feed, error)
	Notifications(name entity.ProviderName) (provider.Notifications, error)
}

// Sink receives the items a poll found. Items are sorted newest first.
type Sink interface {
	Posts(ctx context.Context, up *entity.UserProvider, posts []*entity.Post) error
	Notifications(ctx context.Context, up *entity.UserProvider, notifications []*entity.Notification) error
}

// Config tunes a poll cycle.
type Config struct {
	// Concurrency bounds the accounts polled at the same time.
	Concurrency int
	// FeedLimit and NotificationLimit are passed to the provider; 0 leaves the
	// page size to the provider.
	FeedLimit         int
	NotificationLimit int
	// RequestsPerSecond and Burst pace the calls made to one provider.
	RequestsPerSecond float64
	Burst             int
	// AccountTimeout bounds one account including retries.
	AccountTimeout time.Duration
	Retry          retry.Config
}

// DefaultConfig returns the settings used when the worker has no overrides.
func DefaultConfig() Config {
	return Config{
		Concurrency:       8,
		FeedLimit:         25,
		NotificationLimit: 25,
		RequestsPerSecond: 2,
		Burst:             4,
		AccountTimeout:    5 * time.Minute,
		Retry:             retry.PollConfig(),
	}
}

// Stats summarizes one cycle.
type Stats struct {
	Accounts      int
	Failed        int
	Reauth        int
	Posts         int64
	Notifications int64
	Duration      time.Duration
}

// Result is the outcome of polling one account.
type Result struct {
	Posts         int
	Notifications int
}

// Service runs poll cycles.
type Service struct {
	repo     repository.UserProviderRepository
	registry Registry
	sink     Sink
	cfg      Config

	mu       sync.Mutex
	limiters map[entity.ProviderName]*rate.Limiter

	started     time.Time
	lastSuccess sync.Map // user provider id -> time.Time
	now         func() time.Time
}

// NewService wires a poll service. A nil sink discards items.
func NewService(repo repository.UserProviderRepository, reg Registry, sink Sink, cfg Config) *Service {
	if sink == nil {
		sink = discardSink{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Service{
		repo:     repo,
		registry: reg,
		sink:     sink,
		cfg:      cfg,
		limiters: make(map[entity.ProviderName]*rate.Limiter),
		started:  time.Now(),
		now:      time.Now,
	}
}

// PollAll polls every account that does not need re-authorization. A failing
// account never aborts the cycle; only listing the accounts can fail it.
func (s *Service) PollAll(ctx context.Context) (*Stats, error) {
	ctx = requestid.Ensure(ctx)
	logger := logging.WithRequestID(ctx, logging.FromContext(ctx))
	ctx = logging.WithLogger(ctx, logger)
	start := s.now()

	ups, err := s.repo.ListPollable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list user providers: %w", err)
	}

	var (
		failed, reauth atomic.Int64
		posts, notifs  atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, up := range ups {
		g.Go(func() error {
			res, err := s.PollAccount(gctx, up)
			posts.Add(int64(res.Posts))
			notifs.Add(int64(res.Notifications))
			if err != nil {
				failed.Add(1)
				if entity.IsAuthError(err) {
					reauth.Add(1)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := &Stats{
		Accounts:      len(ups),
		Failed:        int(failed.Load()),
		Reauth:        int(reauth.Load()),
		Posts:         posts.Load(),
		Notifications: notifs.Load(),
		Duration:      s.now().Sub(start),
	}
	metrics.RecordPollCycle(stats.Accounts, stats.Failed)
	slo.UpdatePollSuccess(stats.Accounts, stats.Failed)
	slo.UpdatePollCycleDuration(stats.Duration.Seconds())
	slo.UpdateFeedFreshness(s.stalest(ups).Seconds())

	logger.Info("poll cycle completed",
		slog.Int("accounts", stats.Accounts),
		slog.Int("failed", stats.Failed),
		slog.Int("reauth", stats.Reauth),
		slog.Int64("posts", stats.Posts),
		slog.Int64("notifications", stats.Notifications),
		slog.Duration("duration", stats.Duration))
	return stats, ctx.Err()
}

// PollAccount polls the feed and, when the provider has them, the
// notifications of up. A stream's cursor only moves after its items were
// accepted by the sink. An OAuthError takes the account out of polling.
func (s *Service) PollAccount(ctx context.Context, up *entity.UserProvider) (Result, error) {
	logger := logging.ForUserProvider(logging.FromContext(ctx), up)
	ctx = logging.WithLogger(ctx, logger)
	start := s.now()

	if s.cfg.AccountTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AccountTimeout)
		defer cancel()
	}

	var res Result
	if err := up.Validate(); err != nil {
		return res, s.fail(ctx, up, err)
	}

	var errs []error
	n, err := s.pollFeed(ctx, up)
	res.Posts = n
	if err != nil {
		errs = append(errs, fmt.Errorf("feed: %w", err))
	}
	// A revoked token fails every stream the same way.
	if !entity.IsAuthError(err) {
		n, err = s.pollNotifications(ctx, up)
		res.Notifications = n
		if err != nil {
			errs = append(errs, fmt.Errorf("notifications: %w", err))
		}
	}

	metrics.RecordAccountPoll(up.Provider.String(), s.now().Sub(start), res.Posts, res.Notifications)
	if err := errors.Join(errs...); err != nil {
		return res, s.fail(ctx, up, err)
	}

	s.lastSuccess.Store(up.ID, s.now())
	if err := s.repo.TouchPolledAt(ctx, up.ID, s.now()); err != nil {
		logger.Warn("failed to record poll time", slog.Any("error", err))
	}
	logger.Debug("account polled",
		slog.Int("posts", res.Posts),
		slog.Int("notifications", res.Notifications))
	return res, nil
}

func (s *Service) pollFeed(ctx context.Context, up *entity.UserProvider) (int, error) {
	feed, err := s.registry.Feed(up.Provider)
	if errors.Is(err, entity.ErrCapabilityNotSupported) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pollStream(ctx, s, up, stream[*entity.Post]{
		kind: repository.CursorFeed,
		fetch: func(ctx context.Context, since string) ([]*entity.Post, error) {
			return feed.GetFeed(ctx, up, provider.FeedQuery{Since: since, Limit: s.cfg.FeedLimit})
		},
		key: func(p *entity.Post) (string, string) { return p.Pagination.Since, p.ID },
		deliver: func(ctx context.Context, posts []*entity.Post) error {
			if err := s.sink.Posts(ctx, up, posts); err != nil {
				return fmt.Errorf("sink posts: %w", err)
			}
			return nil
		},
	})
}

func (s *Service) pollNotifications(ctx context.Context, up *entity.UserProvider) (int, error) {
	notifications, err := s.registry.Notifications(up.Provider)
	if errors.Is(err, entity.ErrCapabilityNotSupported) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return pollStream(ctx, s, up, stream[*entity.Notification]{
		kind: repository.CursorNotifications,
		fetch: func(ctx context.Context, since string) ([]*entity.Notification, error) {
			return notifications.GetNotifications(ctx, up, since, s.cfg.NotificationLimit)
		},
		key: func(n *entity.Notification) (string, string) { return n.Pagination.Since, n.ID },
		deliver: func(ctx context.Context, items []*entity.Notification) error {
			if err := s.sink.Notifications(ctx, up, items); err != nil {
				return fmt.Errorf("sink notifications: %w", err)
			}
			return nil
		},
	})
}

// stream describes one cursor-tracked item stream of an account.
type stream[T any] struct {
	kind repository.CursorKind
	// fetch returns the items at or after since.
	fetch func(ctx context.Context, since string) ([]T, error)
	// key returns the pagination cursor and the id of an item.
	key     func(T) (since, id string)
	deliver func(ctx context.Context, items []T) error
}

// pollStream fetches one stream, delivers the items not delivered before and
// stores the new cursor once delivery succeeded. It returns the number of
// delivered items.
func pollStream[T any](ctx context.Context, s *Service, up *entity.UserProvider, st stream[T]) (int, error) {
	cur, err := s.repo.Cursor(ctx, up.ID, st.kind)
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}

	limiter := s.limiter(up.Provider)
	var (
		fresh []T
		next  repository.Cursor
	)
	err = retry.WithBackoffFunc(ctx, s.cfg.Retry, Retryable, func() error {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		items, err := st.fetch(ctx, cur.Since)
		if err != nil {
			return err
		}
		fresh, next = unseen(cur, items, st.key)
		if len(fresh) == 0 {
			return nil
		}
		return st.deliver(ctx, fresh)
	})
	if err != nil {
		return 0, err
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.repo.SaveCursor(ctx, up.ID, st.kind, next); err != nil {
		return len(fresh), fmt.Errorf("save cursor: %w", err)
	}
	return len(fresh), nil
}

// unseen drops the items older than cur and the ones already delivered at
// exactly cur.Since. Providers that ignore since, or treat it as inclusive,
// return those boundary items on every poll. next is the cursor to store
// once fresh is delivered; it never moves backwards.
func unseen[T any](cur repository.Cursor, items []T, key func(T) (string, string)) (fresh []T, next repository.Cursor) {
	seen := make(map[string]bool, len(cur.SeenIDs))
	for _, id := range cur.SeenIDs {
		seen[id] = true
	}

	next = repository.Cursor{Since: cur.Since, SeenIDs: slices.Clone(cur.SeenIDs)}
	for _, item := range items {
		since, id := key(item)
		c := entity.CompareCursor(since, cur.Since)
		if (cur.Since != "" && c < 0) || (c == 0 && seen[id]) {
			continue
		}
		seen[id] = true
		fresh = append(fresh, item)

		switch d := entity.CompareCursor(since, next.Since); {
		case d > 0 || (next.Since == "" && len(next.SeenIDs) == 0):
			next = repository.Cursor{Since: since, SeenIDs: []string{id}}
		case d == 0:
			next.SeenIDs = append(next.SeenIDs, id)
		}
	}
	return fresh, next
}

// fail records err and, for auth errors, takes the account out of polling.
func (s *Service) fail(ctx context.Context, up *entity.UserProvider, err error) error {
	logger := logging.FromContext(ctx)
	kind := Classify(err)
	metrics.RecordPollError(up.Provider.String(), kind)

	var oauthErr *entity.OAuthError
	if errors.As(err, &oauthErr) {
		logger.Warn("account needs re-authorization", slog.Int("code", oauthErr.Code))
		// The cycle context may already be cancelled; the flag must still land.
		markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if markErr := s.repo.MarkNeedsReauth(markCtx, up.ID, oauthErr.Code); markErr != nil {
			logger.Error("failed to flag account for re-authorization", slog.Any("error", markErr))
		}
		return err
	}

	logger.Warn("account poll failed", slog.String("error_type", kind), slog.Any("error", err))
	return err
}

func (s *Service) limiter(name entity.ProviderName) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[name]
	if !ok {
		limit := rate.Inf
		if s.cfg.RequestsPerSecond > 0 {
			limit = rate.Limit(s.cfg.RequestsPerSecond)
		}
		burst := s.cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(limit, burst)
		s.limiters[name] = l
	}
	return l
}

// stalest returns the age of the oldest successful poll among ups. Accounts
// never polled successfully count from service start.
func (s *Service) stalest(ups []*entity.UserProvider) time.Duration {
	now := s.now()
	var worst time.Duration
	for _, up := range ups {
		last := s.started
		if v, ok := s.lastSuccess.Load(up.ID); ok {
			last = v.(time.Time)
		}
		if age := now.Sub(last); age > worst {
			worst = age
		}
	}
	return worst
}

type discardSink struct{}

func (discardSink) Posts(context.Context, *entity.UserProvider, []*entity.Post) error { return nil }

func (discardSink) Notifications(context.Context, *entity.UserProvider, []*entity.Notification) error {
	return nil
}
