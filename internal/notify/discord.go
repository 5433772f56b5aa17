package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/donaldgifford/etsy-v3/internal/metrics"
)

const (
	colorRed    = 0xE74C3C // reauth required
	colorOrange = 0xE67E22 // transient failure

	maxEmbeds = 10
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NotifyRefreshFailures posts one message with an embed per failure. Discord
// accepts at most ten embeds, so larger batches end with a summary embed.
func (d *DiscordNotifier) NotifyRefreshFailures(ctx context.Context, failures []RefreshFailure) error {
	if len(failures) == 0 {
		return nil
	}

	limit := min(len(failures), maxEmbeds-1)
	if len(failures) == maxEmbeds {
		limit = maxEmbeds
	}

	embeds := make([]discordEmbed, 0, limit+1)
	for i := range limit {
		embeds = append(embeds, buildEmbed(&failures[i]))
	}
	if rest := len(failures) - limit; rest > 0 {
		embeds = append(embeds, discordEmbed{
			Title:       fmt.Sprintf("... and %d more profiles failed", rest),
			Color:       colorOrange,
			Description: "Run `etsyctl tokens list` for the full list.",
		})
	}

	payload := discordWebhookPayload{
		Content: fmt.Sprintf("Etsy token refresh failed for %d profile(s)", len(failures)),
		Embeds:  embeds,
	}
	return d.post(ctx, payload)
}

func buildEmbed(f *RefreshFailure) discordEmbed {
	embed := discordEmbed{
		Title:       "Token refresh failed: " + f.Profile,
		Color:       colorOrange,
		Description: f.Error,
		Fields:      []discordEmbedField{},
	}
	if f.Reauth {
		embed.Color = colorRed
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Action", Value: fmt.Sprintf("etsyctl auth login --profile %s", f.Profile),
		})
	}
	if f.UserID != "" {
		embed.Fields = append(embed.Fields, discordEmbedField{Name: "User", Value: f.UserID, Inline: true})
	}
	if !f.Expiry.IsZero() {
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name: "Expires", Value: f.Expiry.UTC().Format(time.RFC3339), Inline: true,
		})
	}
	return embed
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) (err error) {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
		outcome := "sent"
		if err != nil {
			outcome = "failed"
		}
		metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.New("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
