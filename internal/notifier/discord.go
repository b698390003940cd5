package notifier

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/italolelis/debrid_console/internal/telemetry"
)

type Notifier interface {
	Notify(ctx context.Context, content string) error
}

// DiscordNotifier posts plain messages to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string

	client    *resty.Client
	telemetry *telemetry.Telemetry
}

func NewDiscordNotifier(webhookURL string, httpClient *http.Client, tel *telemetry.Telemetry) *DiscordNotifier {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &DiscordNotifier{
		WebhookURL: webhookURL,
		client:     resty.NewWithClient(httpClient),
		telemetry:  tel,
	}
}

func (d *DiscordNotifier) Notify(ctx context.Context, content string) error {
	err := d.send(ctx, content)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.telemetry.RecordNotification(ctx, status)

	return err
}

func (d *DiscordNotifier) send(ctx context.Context, content string) error {
	if d.WebhookURL == "" {
		return fmt.Errorf("webhook URL is not set")
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": content}).
		Post(d.WebhookURL)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("webhook failed with status %d", resp.StatusCode())
	}

	return nil
}

// Nop discards every notification. It stands in when no webhook is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
