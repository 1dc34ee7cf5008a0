package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"costlaw/api/internal/store"
)

const (
	discordUsername    = "Case Law Bot"
	discordEmbedColour = 3447003
	discordFooter      = "Mackenzie Costs Law Case Database"
)

var ErrWebhookNotConfigured = errors.New("discord webhook URL not configured")

// CaseMarker records that a case reached Discord.
type CaseMarker interface {
	UpdateCase(ctx context.Context, id int64, patch store.CasePatch) (store.Case, error)
}

type CommunityReader interface {
	GetCommunity(ctx context.Context) (store.Community, error)
}

type Discord struct {
	client      *http.Client
	cases       CaseMarker
	community   CommunityReader
	fallbackURL string
	siteURL     string
	now         func() time.Time
}

type DiscordOptions struct {
	Client *http.Client
	// FallbackURL is used when the community settings carry no webhook.
	FallbackURL string
	SiteURL     string
	Now         func() time.Time
}

func NewDiscord(cases CaseMarker, community CommunityReader, opts DiscordOptions) *Discord {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Discord{
		client:      client,
		cases:       cases,
		community:   community,
		fallbackURL: strings.TrimSpace(opts.FallbackURL),
		siteURL:     strings.TrimRight(opts.SiteURL, "/"),
		now:         now,
	}
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordFooterText struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	URL         string            `json:"url"`
	Color       int               `json:"color"`
	Fields      []discordField    `json:"fields"`
	Footer      discordFooterText `json:"footer"`
	Timestamp   string            `json:"timestamp"`
}

type discordMessage struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

func (d *Discord) message(c store.Case) discordMessage {
	embed := discordEmbed{
		Title:       "New Case Law: " + c.Title,
		Description: c.Summary,
		URL:         d.siteURL + "/case-law/" + c.Slug,
		Color:       discordEmbedColour,
		Fields: []discordField{
			{Name: "Category", Value: c.Category, Inline: true},
			{Name: "Date", Value: c.Date, Inline: true},
			{Name: "Author", Value: c.Author, Inline: true},
		},
		Footer:    discordFooterText{Text: discordFooter},
		Timestamp: d.now().UTC().Format(time.RFC3339),
	}
	return discordMessage{Username: discordUsername, Embeds: []discordEmbed{embed}}
}

func (d *Discord) webhookURL(ctx context.Context) (string, error) {
	settings, err := d.community.GetCommunity(ctx)
	switch {
	case err == nil:
		if settings.DiscordWebhookURL != nil && strings.TrimSpace(*settings.DiscordWebhookURL) != "" {
			return strings.TrimSpace(*settings.DiscordWebhookURL), nil
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		return "", fmt.Errorf("load community settings: %w", err)
	}
	if d.fallbackURL == "" {
		return "", ErrWebhookNotConfigured
	}
	return d.fallbackURL, nil
}

// Publish posts the case to the Discord webhook and marks it published.
func (d *Discord) Publish(ctx context.Context, c store.Case) (store.Case, error) {
	url, err := d.webhookURL(ctx)
	if err != nil {
		return store.Case{}, err
	}

	body, err := json.Marshal(d.message(c))
	if err != nil {
		return store.Case{}, fmt.Errorf("encode discord message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return store.Case{}, fmt.Errorf("build discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return store.Case{}, fmt.Errorf("post discord webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return store.Case{}, fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	published := true
	updated, err := d.cases.UpdateCase(ctx, c.ID, store.CasePatch{PublishedToDiscord: &published})
	if err != nil {
		return store.Case{}, fmt.Errorf("mark case %d published: %w", c.ID, err)
	}
	return updated, nil
}
