package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/store"
)

// CreateCaseInput is the admin form for a single case. A publishedToDiscord
// value in the body is not accepted; the flag is only set by a successful
// publish.
type CreateCaseInput struct {
	Title            string   `json:"title"`
	Summary          string   `json:"summary"`
	Content          string   `json:"content"`
	Category         string   `json:"category"`
	Date             string   `json:"date"`
	Author           string   `json:"author"`
	Tags             []string `json:"tags"`
	Slug             string   `json:"slug"`
	PublishToDiscord bool     `json:"publishToDiscord"`
}

// UpdateCaseInput has no publishedToDiscord field. Only a delivered Discord
// post sets that flag.
type UpdateCaseInput struct {
	Title    *string   `json:"title"`
	Summary  *string   `json:"summary"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Date     *string   `json:"date"`
	Author   *string   `json:"author"`
	Tags     *[]string `json:"tags"`
	Slug     *string   `json:"slug"`
}

// ImportReport is the response of a bulk import. Skipped lists the titles
// whose slug was already taken.
type ImportReport struct {
	Imported []store.Case        `json:"imported"`
	Skipped  []string            `json:"skipped"`
	Warnings []caselaw.Warning   `json:"warnings"`
	Rejected []caselaw.Rejection `json:"rejected"`
}

func (s *Service) ListCases(ctx context.Context) ([]store.Case, error) {
	return s.store.ListCases(ctx)
}

func (s *Service) SearchCases(ctx context.Context, q store.CaseQuery) ([]store.Case, error) {
	return s.store.SearchCases(ctx, q)
}

func (s *Service) GetCase(ctx context.Context, id int64) (store.Case, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return store.Case{}, lookupErr("Case", err)
	}
	return c, nil
}

func (s *Service) GetCaseBySlug(ctx context.Context, slug string) (store.Case, error) {
	c, err := s.store.GetCaseBySlug(ctx, slug)
	if err != nil {
		return store.Case{}, lookupErr("Case", err)
	}
	return c, nil
}

func (s *Service) CreateCase(ctx context.Context, input CreateCaseInput) (store.Case, error) {
	var v validator
	v.require("title", input.Title)
	v.require("summary", input.Summary)
	v.require("content", input.Content)
	v.require("category", input.Category)
	v.require("date", input.Date)
	v.require("author", input.Author)
	if err := v.err("Invalid case data"); err != nil {
		return store.Case{}, err
	}

	slug := defaultSlug("case", input.Slug, input.Title)
	tags := compactTags(input.Tags)
	if len(tags) == 0 {
		tags = []string{input.Category}
	}

	created, err := s.store.CreateCase(ctx, store.NewCase{
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		Date:     input.Date,
		Author:   input.Author,
		Tags:     tags,
		Slug:     slug,
	})
	if errors.Is(err, store.ErrConflict) {
		return store.Case{}, domainError(http.StatusConflict, "CONFLICT", "A case with this slug already exists", []FieldError{{Field: "slug", Message: "is already taken"}})
	}
	if err != nil {
		return store.Case{}, err
	}

	s.search.IndexCase(created)
	if input.PublishToDiscord {
		s.notifier.QueueCasePublish(created)
	}
	return created, nil
}

func (s *Service) UpdateCase(ctx context.Context, id int64, input UpdateCaseInput) (store.Case, error) {
	var v validator
	v.optional("title", input.Title)
	v.optional("slug", input.Slug)
	if input.Tags != nil {
		v.check(len(compactTags(*input.Tags)) > 0, "tags", "must contain at least one tag")
	}
	if err := v.err("Invalid case data"); err != nil {
		return store.Case{}, err
	}

	patch := store.CasePatch{
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		Date:     input.Date,
		Author:   input.Author,
		Slug:     input.Slug,
	}
	if input.Tags != nil {
		tags := compactTags(*input.Tags)
		patch.Tags = &tags
	}

	updated, err := s.store.UpdateCase(ctx, id, patch)
	if errors.Is(err, store.ErrConflict) {
		return store.Case{}, domainError(http.StatusConflict, "CONFLICT", "A case with this slug already exists", []FieldError{{Field: "slug", Message: "is already taken"}})
	}
	if err != nil {
		return store.Case{}, lookupErr("Case", err)
	}
	s.search.IndexCase(updated)
	return updated, nil
}

func (s *Service) DeleteCase(ctx context.Context, id int64) error {
	if err := s.store.DeleteCase(ctx, id); err != nil {
		return lookupErr("Case", err)
	}
	s.search.RemoveCase(id)
	return nil
}

// ImportCases transforms a raw batch and stores every record whose slug is
// free. Records that fail the transform are reported, never fatal.
func (s *Service) ImportCases(ctx context.Context, raws []caselaw.RawCase) (ImportReport, error) {
	batch := s.transformer.TransformCases(raws)
	result, err := s.store.ImportCases(ctx, batch.Cases)
	if err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Warnings: batch.Warnings,
		Rejected: batch.Rejected,
	}
	if report.Imported == nil {
		report.Imported = []store.Case{}
	}
	if report.Skipped == nil {
		report.Skipped = []string{}
	}

	s.metrics.ObserveImport(len(report.Imported), len(report.Skipped), len(report.Rejected))
	for _, c := range report.Imported {
		s.search.IndexCase(c)
	}
	s.logger.Info("cases imported",
		zap.Int("received", len(raws)),
		zap.Int("imported", len(report.Imported)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}

// PublishCase posts the case to Discord and waits for the result.
func (s *Service) PublishCase(ctx context.Context, id int64) (store.Case, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return store.Case{}, err
	}
	published, err := s.notifier.PublishCase(ctx, c)
	if err != nil {
		s.logger.Error("discord publish failed", zap.Int64("case_id", id), zap.Error(err))
		return store.Case{}, domainError(http.StatusInternalServerError, "DISCORD_FAILED", "Failed to publish to Discord", nil)
	}
	s.search.IndexCase(published)
	return published, nil
}

func compactTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
