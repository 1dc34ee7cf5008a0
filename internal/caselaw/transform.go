// Package caselaw normalises case records from external exports into the
// canonical shape the store accepts.
package caselaw

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"costlaw/api/internal/casedate"
	"costlaw/api/internal/store"
)

const (
	DefaultCategory = "Legal"
	DefaultAuthor   = "William Mackenzie"
)

var (
	ErrMissingTitle   = errors.New("missing title")
	ErrInvalidTitle   = errors.New("title must be a string")
	ErrMissingSummary = errors.New("missing summary")
	ErrNotObject      = errors.New("record is not a JSON object")
)

// Warning describes a record that was accepted with a substituted value.
type Warning struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Rejection describes a record dropped from a batch.
type Rejection struct {
	Index      int    `json:"index"`
	ExternalID string `json:"externalId,omitempty"`
	Title      string `json:"title,omitempty"`
	Reason     string `json:"reason"`
}

type Batch struct {
	Cases    []store.NewCase
	Warnings []Warning
	Rejected []Rejection
}

type Transformer struct {
	now    func() time.Time
	logger *zap.Logger
}

func NewTransformer(logger *zap.Logger, now func() time.Time) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Transformer{now: now, logger: logger.Named("caselaw")}
}

// TransformCase maps one raw record. The returned messages describe values
// that had to be substituted; an error means the record cannot be stored.
func (t *Transformer) TransformCase(raw RawCase) (store.NewCase, []string, error) {
	if raw.malformed {
		return store.NewCase{}, nil, ErrNotObject
	}
	if raw.titleInvalid {
		return store.NewCase{}, nil, ErrInvalidTitle
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return store.NewCase{}, nil, ErrMissingTitle
	}
	if strings.TrimSpace(raw.Summary) == "" {
		return store.NewCase{}, nil, ErrMissingSummary
	}

	var warnings []string

	var slug string
	switch {
	case raw.Slug.Set:
		slug = raw.Slug.Value
	case Slugify(title) != "":
		slug = Slugify(title)
	case Slugify(raw.ExternalID) != "":
		slug = "case-" + Slugify(raw.ExternalID)
	default:
		slug = SlugOr("case", title)
	}

	content := raw.Content
	if strings.TrimSpace(content) == "" {
		content = FormatContent(raw.Title, raw.Summary, raw.Participants.Value)
		if raw.Link.Set {
			content = appendSourceLink(content, raw.Link.Value)
		}
	}

	date := casedate.Today(t.now())
	if strings.TrimSpace(raw.Date) != "" {
		if normalized, ok := casedate.Normalize(raw.Date); ok {
			date = normalized
		} else {
			warnings = append(warnings, fmt.Sprintf("unparseable date %q replaced with %s", raw.Date, date))
		}
	}

	tags := []string{DefaultCategory}
	if raw.Tags.Set && len(raw.Tags.Value) > 0 {
		tags = append([]string(nil), raw.Tags.Value...)
	}

	category := DefaultCategory
	switch {
	case raw.Tags.Set && len(raw.Tags.Value) > 0:
		category = raw.Tags.Value[0]
	case raw.Category != "":
		category = raw.Category
	}

	author := raw.Author
	if author == "" {
		author = DefaultAuthor
	}

	return store.NewCase{
		Title:    raw.Title,
		Summary:  raw.Summary,
		Content:  content,
		Category: category,
		Date:     date,
		Author:   author,
		Tags:     tags,
		Slug:     slug,
	}, warnings, nil
}

// TransformCases maps a batch, dropping records that cannot be transformed.
// It never fails as a whole.
func (t *Transformer) TransformCases(raws []RawCase) Batch {
	batch := Batch{
		Cases:    make([]store.NewCase, 0, len(raws)),
		Warnings: []Warning{},
		Rejected: []Rejection{},
	}
	for i, raw := range raws {
		c, warnings, err := t.TransformCase(raw)
		if err != nil {
			t.logger.Warn("skipping case record",
				zap.Int("index", i),
				zap.String("external_id", raw.ExternalID),
				zap.String("title", raw.Title),
				zap.Error(err),
			)
			batch.Rejected = append(batch.Rejected, Rejection{
				Index:      i,
				ExternalID: raw.ExternalID,
				Title:      raw.Title,
				Reason:     err.Error(),
			})
			continue
		}
		for _, message := range warnings {
			t.logger.Warn("case record adjusted", zap.Int("index", i), zap.String("slug", c.Slug), zap.String("detail", message))
			batch.Warnings = append(batch.Warnings, Warning{Index: i, Title: c.Title, Message: message})
		}
		batch.Cases = append(batch.Cases, c)
	}
	return batch
}
