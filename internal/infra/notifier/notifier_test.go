package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feedient/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func account() *entity.UserProvider {
	return &entity.UserProvider{
		ID: "up-1", UserID: "u-1", Provider: entity.Twitter, ProviderUserID: "12",
		Account: &entity.Account{Username: "jack"},
	}
}

// fastHook points w at url without pacing or backoff.
func fastHook(w *webhook, url string) {
	w.url = url
	w.limiter = rate.NewLimiter(rate.Inf, 1)
	w.baseDelay = time.Millisecond
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]Item
	err   error
}

func (r *recordingNotifier) Notify(_ context.Context, _ *entity.UserProvider, items []Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, items)
	return r.err
}

type countingNext struct{ posts, notifications int }

func (c *countingNext) Posts(_ context.Context, _ *entity.UserProvider, posts []*entity.Post) error {
	c.posts += len(posts)
	return nil
}

func (c *countingNext) Notifications(_ context.Context, _ *entity.UserProvider, ns []*entity.Notification) error {
	c.notifications += len(ns)
	return nil
}

func TestSink_Notifications(t *testing.T) {
	rec := &recordingNotifier{}
	next := &countingNext{}
	s := &Sink{Notifiers: []Notifier{rec}, Next: next, MaxItems: 2}

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ns := []*entity.Notification{
		{ID: "n3", Link: "https://x.example/3", CreatedTime: created, UserFrom: entity.PostUser{Name: "Ann"}, Content: entity.NotificationContent{Message: "liked your post"}},
		{ID: "n2"},
		{ID: "n1"},
	}
	require.NoError(t, s.Notifications(context.Background(), account(), ns))

	require.Len(t, rec.calls, 1)
	require.Len(t, rec.calls[0], 2)
	assert.Equal(t, Item{Text: "liked your post", URL: "https://x.example/3", Author: "Ann", Time: created}, rec.calls[0][0])
	assert.Equal(t, 3, next.notifications, "next sees the whole batch")
}

func TestSink_PostsOnlyWhenForwarded(t *testing.T) {
	rec := &recordingNotifier{}
	next := &countingNext{}
	posts := []*entity.Post{{ID: "p1", PostLink: "https://x.example/p1", Content: entity.PostContent{Title: "Hello", Message: "body"}}}

	s := &Sink{Notifiers: []Notifier{rec}, Next: next}
	require.NoError(t, s.Posts(context.Background(), account(), posts))
	assert.Empty(t, rec.calls)

	s.ForwardPosts = true
	require.NoError(t, s.Posts(context.Background(), account(), posts))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "Hello", rec.calls[0][0].Title)
	assert.Equal(t, 2, next.posts)
}

func TestSink_NotifierErrorIsSwallowed(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("webhook down")}
	s := &Sink{Notifiers: []Notifier{rec, NoOpNotifier{}}}
	err := s.Notifications(context.Background(), account(), []*entity.Notification{{ID: "n1"}})
	assert.NoError(t, err)
	assert.Len(t, rec.calls, 1)
}

func TestPostItem_FallsBackToActionMessage(t *testing.T) {
	p := &entity.Post{Content: entity.PostContent{Action: &entity.PostAction{Message: "Ann retweeted"}}}
	assert.Equal(t, "Ann retweeted", PostItem(p).Title)
}

func TestAccountLabel(t *testing.T) {
	assert.Equal(t, "twitter / jack", accountLabel(account()))
	assert.Equal(t, "rss", accountLabel(&entity.UserProvider{Provider: entity.RSS}))
	assert.Equal(t, "facebook / Jane Doe", accountLabel(&entity.UserProvider{
		Provider: entity.Facebook, Account: &entity.Account{UserFullName: "Jane Doe"},
	}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10, "..."))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7, "..."))
	assert.Equal(t, "日本...", truncate("日本語のテキスト", 5, "..."))
	assert.Equal(t, "...", truncate("abcdef", 2, "..."))
}

func TestValidateWebhookURLs(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		url      string
		wantErr  bool
	}{
		{"discord ok", ValidateDiscordURL, "https://discord.com/api/webhooks/1/abc", false},
		{"discord http", ValidateDiscordURL, "http://discord.com/api/webhooks/1/abc", true},
		{"discord host", ValidateDiscordURL, "https://evil.example/api/webhooks/1/abc", true},
		{"discord path", ValidateDiscordURL, "https://discord.com/channels/1", true},
		{"slack ok", ValidateSlackURL, "https://hooks.slack.com/services/T/B/x", false},
		{"slack empty", ValidateSlackURL, "", true},
		{"slack host", ValidateSlackURL, "https://discord.com/services/T/B/x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiscordNotifier_Notify(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []discordPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p discordPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordNotifier(DiscordConfig{WebhookURL: srv.URL})
	fastHook(d.hook, srv.URL)

	items := make([]Item, 12)
	for i := range items {
		items[i] = Item{Text: "item", URL: "https://x.example", Author: "Ann", Time: time.Unix(1700000000, 0)}
	}
	items[0].Title = strings.Repeat("t", 300)

	require.NoError(t, d.Notify(context.Background(), account(), items))
	require.Len(t, payloads, 2)
	assert.Len(t, payloads[0].Embeds, 10)
	assert.Len(t, payloads[1].Embeds, 2)

	first := payloads[0].Embeds[0]
	assert.Len(t, []rune(first.Title), discordMaxTitle)
	assert.Equal(t, "twitter / jack", first.Footer.Text)
	assert.Equal(t, "Ann", first.Author.Name)
	assert.Equal(t, "2023-11-14T22:13:20Z", first.Timestamp)
	assert.Equal(t, discordBlurple, first.Color)
}

func TestSlackNotifier_Payload(t *testing.T) {
	items := []Item{
		{Title: "A <b> title", Text: "x & y", URL: "https://x.example/1", Author: "Ann", Time: time.Unix(0, 0)},
		{Text: "no title", URL: "https://x.example/2"},
	}
	payloads := buildSlackPayloads("twitter / jack", items)
	require.Len(t, payloads, 1)

	p := payloads[0]
	assert.Equal(t, "2 new from twitter / jack", p.Text)
	require.Len(t, p.Blocks, 5)
	assert.Equal(t, "header", p.Blocks[0].Type)
	assert.Equal(t, "*<https://x.example/1|A &lt;b&gt; title>*\nx &amp; y", p.Blocks[1].Text.Text)
	assert.Equal(t, "Ann • 1970-01-01T00:00:00Z", p.Blocks[2].Elements[0].Text)
	assert.Equal(t, "no title\n<https://x.example/2|Open>", p.Blocks[3].Text.Text)
	assert.Equal(t, "-", p.Blocks[4].Elements[0].Text)
}

func TestSlackNotifier_SplitsLargeBatches(t *testing.T) {
	payloads := buildSlackPayloads("rss", make([]Item, slackMaxItems+1))
	require.Len(t, payloads, 2)
	assert.Len(t, payloads[0].Blocks, 1+2*slackMaxItems)
	assert.LessOrEqual(t, len(payloads[0].Blocks), 50)
}

func TestWebhook_Deliver(t *testing.T) {
	tests := []struct {
		name      string
		responses []int
		wantCalls int32
		wantErr   any
	}{
		{name: "ok", responses: []int{200}, wantCalls: 1},
		{name: "server error then ok", responses: []int{500, 200}, wantCalls: 2},
		{name: "rate limited then ok", responses: []int{429, 200}, wantCalls: 2},
		{name: "client error is not retried", responses: []int{404}, wantCalls: 1, wantErr: &ClientError{}},
		{name: "server errors exhaust attempts", responses: []int{503, 503}, wantCalls: 2, wantErr: &ServerError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				n := calls.Add(1)
				code := tt.responses[min(int(n), len(tt.responses))-1]
				if code == http.StatusTooManyRequests {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(code)
					_, _ = w.Write([]byte(`{"message":"slow down","retry_after":0.01}`))
					return
				}
				w.WriteHeader(code)
			}))
			defer srv.Close()

			hook := newWebhook("test", srv.URL, time.Second, 1, 1)
			fastHook(hook, srv.URL)

			err := hook.deliver(context.Background(), map[string]string{"text": "hi"})
			assert.Equal(t, tt.wantCalls, calls.Load())
			switch want := tt.wantErr.(type) {
			case nil:
				assert.NoError(t, err)
			case *ClientError:
				assert.ErrorAs(t, err, &want)
			case *ServerError:
				assert.ErrorAs(t, err, &want)
			}
		})
	}
}

func TestWebhook_CanceledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	hook := newWebhook("test", srv.URL, time.Second, 1, 1)
	fastHook(hook, srv.URL)
	hook.baseDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := hook.deliver(ctx, map[string]string{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	header := func(v string) *http.Response {
		return &http.Response{Header: http.Header{"Retry-After": []string{v}}}
	}
	assert.Equal(t, 1500*time.Millisecond, retryAfter(header(""), []byte(`{"retry_after":1.5}`)))
	assert.Equal(t, 7*time.Second, retryAfter(header("7"), []byte("rate limited")))
	assert.Equal(t, defaultRetryAfter, retryAfter(header("soon"), nil))
}
