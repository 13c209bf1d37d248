package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedient/internal/domain/entity"
)

// SlackConfig configures a Slack incoming webhook.
type SlackConfig struct {
	// WebhookURL carries the webhook token; it is never logged.
	WebhookURL string
	Timeout    time.Duration
}

// SlackNotifier posts items as Block Kit sections.
type SlackNotifier struct {
	hook *webhook
}

// NewSlackNotifier paces requests at one per second, Slack's limit for
// incoming webhooks.
func NewSlackNotifier(cfg SlackConfig) *SlackNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SlackNotifier{hook: newWebhook("slack", cfg.WebhookURL, cfg.Timeout, 1, 1)}
}

// ValidateSlackURL accepts https://hooks.slack.com/services/... only.
func ValidateSlackURL(raw string) error {
	return validateWebhookURL(raw, "hooks.slack.com", "/services/")
}

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string       `json:"type"`
	Text     *slackText   `json:"text,omitempty"`
	Elements []*slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const (
	// Each item takes a section and a context block; Slack allows 50 blocks.
	slackMaxItems       = 24
	slackMaxSectionText = 3000
	slackMaxContextText = 2000
	slackMaxFallback    = 150
)

func (s *SlackNotifier) Notify(ctx context.Context, up *entity.UserProvider, items []Item) error {
	var errs []error
	for _, payload := range buildSlackPayloads(accountLabel(up), items) {
		if err := s.hook.deliver(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildSlackPayloads(label string, items []Item) []slackPayload {
	var payloads []slackPayload
	for start := 0; start < len(items); start += slackMaxItems {
		end := min(start+slackMaxItems, len(items))
		p := slackPayload{
			Text: truncate(fmt.Sprintf("%d new from %s", end-start, label), slackMaxFallback, "..."),
		}
		p.Blocks = append(p.Blocks, slackBlock{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: truncate(label, slackMaxFallback, "...")},
		})
		for _, it := range items[start:end] {
			p.Blocks = append(p.Blocks, slackSection(it), slackContext(it))
		}
		payloads = append(payloads, p)
	}
	return payloads
}

func slackSection(it Item) slackBlock {
	var b strings.Builder
	if it.Title != "" {
		if it.URL != "" {
			fmt.Fprintf(&b, "*<%s|%s>*", it.URL, slackEscape(it.Title))
		} else {
			fmt.Fprintf(&b, "*%s*", slackEscape(it.Title))
		}
		if it.Text != "" {
			b.WriteString("\n")
		}
	}
	b.WriteString(slackEscape(it.Text))
	if it.Title == "" && it.URL != "" {
		fmt.Fprintf(&b, "\n<%s|Open>", it.URL)
	}
	text := b.String()
	if text == "" {
		text = " "
	}
	return slackBlock{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: truncate(text, slackMaxSectionText, "...")},
	}
}

func slackContext(it Item) slackBlock {
	parts := make([]string, 0, 2)
	if it.Author != "" {
		parts = append(parts, slackEscape(it.Author))
	}
	if !it.Time.IsZero() {
		parts = append(parts, it.Time.UTC().Format(time.RFC3339))
	}
	if len(parts) == 0 {
		parts = append(parts, "-")
	}
	return slackBlock{
		Type: "context",
		Elements: []*slackText{{
			Type: "mrkdwn",
			Text: truncate(strings.Join(parts, " • "), slackMaxContextText, "..."),
		}},
	}
}

// slackEscaper escapes the characters mrkdwn treats as control sequences.
var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func slackEscape(s string) string { return slackEscaper.Replace(s) }
