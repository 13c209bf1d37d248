package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"feedient/internal/domain/entity"
	"feedient/internal/handler/http/respond"
	"feedient/internal/provider"
	"feedient/internal/resilience/circuitbreaker"

	"golang.org/x/sync/errgroup"
)

// Status classifies the outcome of one diagnostic fetch.
type Status string

const (
	StatusOK          Status = "OK"
	StatusEmpty       Status = "EMPTY"
	StatusReauth      Status = "NEEDS_REAUTH"
	StatusRateLimited Status = "RATE_LIMITED"
	StatusCircuitOpen Status = "CIRCUIT_OPEN"
	StatusUnsupported Status = "UNSUPPORTED"
	StatusTimeout     Status = "TIMEOUT"
	StatusProvider    Status = "PROVIDER_ERROR"
	StatusParse       Status = "PARSE_ERROR"
	StatusError       Status = "ERROR"
)

// Diagnostic is the result of fetching the newest post of one linked account.
type Diagnostic struct {
	ID           string              `json:"id"`
	UserID       string              `json:"user_id"`
	Provider     entity.ProviderName `json:"provider"`
	Account      string              `json:"account"`
	Status       Status              `json:"status"`
	LatestPost   string              `json:"latest_post,omitempty"`
	LatestDate   *time.Time          `json:"latest_date,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	ResponseTime int64               `json:"response_time_ms"`
}

// FeedSource resolves the feed strategy of a provider.
type FeedSource interface {
	Feed(name entity.ProviderName) (provider.Feed, error)
}

// diagnoseAll checks every account with at most concurrency fetches in
// flight and returns the results ordered by provider, then account id.
func diagnoseAll(ctx context.Context, feeds FeedSource, ups []*entity.UserProvider, timeout time.Duration, concurrency int) []Diagnostic {
	out := make([]Diagnostic, len(ups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, up := range ups {
		g.Go(func() error {
			out[i] = diagnose(gctx, feeds, up, timeout)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func diagnose(ctx context.Context, feeds FeedSource, up *entity.UserProvider, timeout time.Duration) Diagnostic {
	d := Diagnostic{
		ID:       up.ID,
		UserID:   up.UserID,
		Provider: up.Provider,
		Account:  up.ProviderUserID,
	}
	if up.Account != nil && up.Account.Username != "" {
		d.Account = up.Account.Username
	}

	feed, err := feeds.Feed(up.Provider)
	if err != nil {
		d.Status, d.ErrorMessage = classify(err), respond.SanitizeError(err)
		return d
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	posts, err := feed.GetFeed(ctx, up, provider.FeedQuery{Limit: 1})
	d.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		d.Status, d.ErrorMessage = classify(err), respond.SanitizeError(err)
		return d
	}
	if len(posts) == 0 {
		d.Status = StatusEmpty
		return d
	}

	d.Status = StatusOK
	d.LatestPost = posts[0].ID
	if created := posts[0].Content.DateCreated; !created.IsZero() {
		d.LatestDate = &created
	}
	return d
}

func classify(err error) Status {
	var (
		oauthErr    *entity.OAuthError
		providerErr *entity.ProviderError
		parseErr    *entity.ParseError
	)
	switch {
	case errors.As(err, &oauthErr):
		return StatusReauth
	case errors.Is(err, entity.ErrRateLimitReached):
		return StatusRateLimited
	case circuitbreaker.IsRejection(err):
		return StatusCircuitOpen
	case errors.Is(err, entity.ErrProviderNotSupported), errors.Is(err, entity.ErrCapabilityNotSupported):
		return StatusUnsupported
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.As(err, &parseErr):
		return StatusParse
	case errors.As(err, &providerErr):
		return StatusProvider
	}
	return StatusError
}

// writeReport prints a table followed by a per-status summary.
func writeReport(w io.Writer, diags []Diagnostic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tACCOUNT\tID\tSTATUS\tTIME\tDETAIL")
	counts := make(map[Status]int)
	for _, d := range diags {
		counts[d.Status]++
		detail := d.ErrorMessage
		if d.Status == StatusOK && d.LatestDate != nil {
			detail = "latest " + d.LatestDate.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\t%s\n", d.Provider, d.Account, d.ID, d.Status, d.ResponseTime, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	fmt.Fprintf(w, "\n%d accounts checked\n", len(diags))
	for _, s := range statuses {
		fmt.Fprintf(w, "  %-15s %d\n", s, counts[Status(s)])
	}
	return nil
}

func writeJSON(w io.Writer, diags []Diagnostic) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(diags)
}
