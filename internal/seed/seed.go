// Package seed fills an empty store with the site's starting content.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/store"
)

//go:embed seed.json
var seedJSON []byte

type community struct {
	DiscordInviteURL  *string         `json:"discordInviteUrl"`
	DiscordServerID   *string         `json:"discordServerId"`
	EventName         *string         `json:"eventName"`
	EventDescription  *string         `json:"eventDescription"`
	EventDate         *string         `json:"eventDate"`
	DiscordWebhookURL *string         `json:"discordWebhookUrl"`
	Settings          json.RawMessage `json:"settings"`
}

type Data struct {
	Services  []store.NewService    `json:"services"`
	Team      []store.NewTeamMember `json:"team"`
	Community community             `json:"community"`
	News      []store.NewNews       `json:"news"`
	Cases     []caselaw.RawCase     `json:"cases"`
}

// Load decodes the embedded seed content.
func Load() (Data, error) {
	var data Data
	if err := json.Unmarshal(seedJSON, &data); err != nil {
		return Data{}, fmt.Errorf("decode seed data: %w", err)
	}
	return data, nil
}

// Report counts what Apply created.
type Report struct {
	Services  int
	Team      int
	News      int
	Cases     int
	Community bool
}

// Apply seeds each collection that is still empty. Collections that already
// hold records are left alone, so Apply is safe to run on every start.
func Apply(ctx context.Context, st store.Storage, transformer *caselaw.Transformer, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := Load()
	if err != nil {
		return Report{}, err
	}
	var report Report

	services, err := st.ListServices(ctx)
	if err != nil {
		return report, fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		for _, svc := range data.Services {
			if _, err := st.CreateService(ctx, svc); err != nil && !errors.Is(err, store.ErrConflict) {
				return report, fmt.Errorf("seed service %s: %w", svc.Slug, err)
			}
			report.Services++
		}
	}

	team, err := st.ListTeamMembers(ctx)
	if err != nil {
		return report, fmt.Errorf("list team: %w", err)
	}
	if len(team) == 0 {
		for _, member := range data.Team {
			if _, err := st.CreateTeamMember(ctx, member); err != nil {
				return report, fmt.Errorf("seed team member %s: %w", member.Name, err)
			}
			report.Team++
		}
	}

	news, err := st.ListNews(ctx)
	if err != nil {
		return report, fmt.Errorf("list news: %w", err)
	}
	if len(news) == 0 {
		for _, item := range data.News {
			if _, err := st.CreateNews(ctx, item); err != nil && !errors.Is(err, store.ErrConflict) {
				return report, fmt.Errorf("seed news %s: %w", item.Slug, err)
			}
			report.News++
		}
	}

	cases, err := st.ListCases(ctx)
	if err != nil {
		return report, fmt.Errorf("list cases: %w", err)
	}
	if len(cases) == 0 {
		batch := transformer.TransformCases(data.Cases)
		result, err := st.ImportCases(ctx, batch.Cases)
		if err != nil {
			return report, fmt.Errorf("seed cases: %w", err)
		}
		report.Cases = len(result.Imported)
	}

	if _, err := st.GetCommunity(ctx); errors.Is(err, store.ErrNotFound) {
		c := data.Community
		if _, err := st.UpdateCommunity(ctx, store.CommunityPatch{
			DiscordInviteURL:  c.DiscordInviteURL,
			DiscordServerID:   c.DiscordServerID,
			EventName:         c.EventName,
			EventDescription:  c.EventDescription,
			EventDate:         c.EventDate,
			DiscordWebhookURL: c.DiscordWebhookURL,
			Settings:          c.Settings,
		}); err != nil {
			return report, fmt.Errorf("seed community: %w", err)
		}
		report.Community = true
	} else if err != nil {
		return report, fmt.Errorf("get community: %w", err)
	}

	logger.Info("seed data applied",
		zap.Int("services", report.Services),
		zap.Int("team", report.Team),
		zap.Int("news", report.News),
		zap.Int("cases", report.Cases),
		zap.Bool("community", report.Community),
	)
	return report, nil
}
