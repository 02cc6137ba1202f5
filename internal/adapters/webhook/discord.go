package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"campusevents/internal/domain"
)

const embedColor = 0x5865F2

type discordNotifier struct {
	client *http.Client
}

// NewDiscordNotifier returns a WebhookNotifier that posts embeds to Discord
// webhook URLs.
func NewDiscordNotifier(client *http.Client) domain.WebhookNotifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &discordNotifier{client: client}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (n *discordNotifier) EventPublished(ctx context.Context, webhookURL string, e *domain.Event) error {
	if webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(discordPayload{Embeds: []discordEmbed{publishedEmbed(e)}})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

func publishedEmbed(e *domain.Event) discordEmbed {
	start := "TBA"
	if e.StartDate != nil {
		start = e.StartDate.UTC().Format("Mon, 02 Jan 2006 15:04 MST")
	}
	price := "Free"
	if e.Price > 0 {
		price = "₹" + strconv.FormatFloat(e.Price, 'f', -1, 64)
	}
	location := e.Location
	if location == "" {
		location = "TBA"
	}
	return discordEmbed{
		Title:       "New Event Published: " + e.Name,
		Description: domain.Truncate(e.Description, 300),
		Color:       embedColor,
		Fields: []discordField{
			{Name: "Type", Value: string(e.Type), Inline: true},
			{Name: "Location", Value: location, Inline: true},
			{Name: "Start", Value: start, Inline: false},
			{Name: "Eligibility", Value: string(e.Eligibility), Inline: true},
			{Name: "Price", Value: price, Inline: true},
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
