package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"feedient/internal/domain/entity"
)

// DiscordConfig configures a Discord webhook.
type DiscordConfig struct {
	// WebhookURL carries the webhook token; it is never logged.
	WebhookURL string
	Timeout    time.Duration
}

// DiscordNotifier posts items as embeds, at most ten per message.
type DiscordNotifier struct {
	hook *webhook
}

// NewDiscordNotifier paces requests at 0.5/s with a burst of 3, which stays
// under Discord's 30 requests per minute webhook limit.
func NewDiscordNotifier(cfg DiscordConfig) *DiscordNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &DiscordNotifier{hook: newWebhook("discord", cfg.WebhookURL, cfg.Timeout, 0.5, 3)}
}

// ValidateDiscordURL accepts https://discord.com/api/webhooks/... only.
func ValidateDiscordURL(raw string) error {
	return validateWebhookURL(raw, "discord.com", "/api/webhooks/")
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Color       int                 `json:"color"`
	Author      *discordEmbedAuthor `json:"author,omitempty"`
	Footer      discordEmbedFooter  `json:"footer"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedAuthor struct {
	Name string `json:"name"`
}

type discordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	discordMaxEmbeds      = 10
	discordMaxTitle       = 256
	discordMaxDescription = 4096
	discordMaxAuthor      = 256
	discordBlurple        = 5793266 // #5865F2
)

func (d *DiscordNotifier) Notify(ctx context.Context, up *entity.UserProvider, items []Item) error {
	var errs []error
	for _, payload := range buildDiscordPayloads(accountLabel(up), items) {
		if err := d.hook.deliver(ctx, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDiscordPayloads(label string, items []Item) []discordPayload {
	var payloads []discordPayload
	for start := 0; start < len(items); start += discordMaxEmbeds {
		end := min(start+discordMaxEmbeds, len(items))
		embeds := make([]discordEmbed, 0, end-start)
		for _, it := range items[start:end] {
			embeds = append(embeds, discordEmbedFor(label, it))
		}
		payloads = append(payloads, discordPayload{Embeds: embeds})
	}
	return payloads
}

func discordEmbedFor(label string, it Item) discordEmbed {
	e := discordEmbed{
		Title:       truncate(it.Title, discordMaxTitle, "..."),
		Description: truncate(it.Text, discordMaxDescription, "..."),
		URL:         it.URL,
		Color:       discordBlurple,
		Footer:      discordEmbedFooter{Text: label},
	}
	if it.Author != "" {
		e.Author = &discordEmbedAuthor{Name: truncate(it.Author, discordMaxAuthor, "...")}
	}
	if !it.Time.IsZero() {
		e.Timestamp = it.Time.UTC().Format(time.RFC3339)
	}
	return e
}

func validateWebhookURL(raw, host, pathPrefix string) error {
	if raw == "" {
		return errors.New("webhook url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if u.Scheme != "https" {
		return errors.New("webhook url must use https")
	}
	if u.Host != host {
		return fmt.Errorf("webhook host must be %s, got %q", host, u.Host)
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return fmt.Errorf("webhook path must start with %s", pathPrefix)
	}
	return nil
}
