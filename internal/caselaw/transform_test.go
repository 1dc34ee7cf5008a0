package caselaw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) }

func parseOne(t *testing.T, data string) RawCase {
	t.Helper()
	cases, err := ParseRawCases([]byte("[" + data + "]"))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	return cases[0]
}

func TestTransformCaseMinimalRecord(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)
	raw := parseOne(t, `{"title":"Smith v Jones","summary":"A dispute about costs.","date":"2024-02-15"}`)

	c, warnings, err := tr.TransformCase(raw)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "smith-v-jones", c.Slug)
	assert.Equal(t, "Legal", c.Category)
	assert.Equal(t, []string{"Legal"}, c.Tags)
	assert.Equal(t, "2024-02-15", c.Date)
	assert.Equal(t, "William Mackenzie", c.Author)
	assert.Equal(t, FormatContent("Smith v Jones", "A dispute about costs.", nil), c.Content)
}

func TestTransformCaseFullRecord(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)
	raw := parseOne(t, `{
		"_id": {"$oid": "65f0c0ffee"},
		"title": "Harrison v Black",
		"summary": "QOCS set-off.",
		"date": "May 19, 2024",
		"tags": ["QOCS", "Set-off"],
		"category": "Ignored",
		"author": "Jane Doe",
		"participants": ["Judge X", 42],
		"link": "https://example.com/judgment",
		"slug": "harrison-black-2024"
	}`)
	assert.Equal(t, "65f0c0ffee", raw.ExternalID)

	c, warnings, err := tr.TransformCase(raw)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "harrison-black-2024", c.Slug)
	assert.Equal(t, "QOCS", c.Category)
	assert.Equal(t, []string{"QOCS", "Set-off"}, c.Tags)
	assert.Equal(t, "2024-05-19", c.Date)
	assert.Equal(t, "Jane Doe", c.Author)
	assert.Contains(t, c.Content, "## Participants\n- Judge X\n- 42")
	assert.Contains(t, c.Content, "\n\n## Original Source\n[View original source](https://example.com/judgment)")
}

func TestTransformCaseKeepsSuppliedContent(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)
	raw := parseOne(t, `{"title":"A","summary":"B","content":"<p>hand written</p>","link":"https://x"}`)

	c, _, err := tr.TransformCase(raw)
	require.NoError(t, err)
	assert.Equal(t, "<p>hand written</p>", c.Content)
}

func TestTransformCaseFallbacks(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)

	t.Run("category without tags", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"title":"A","summary":"B","category":"Fixed Costs"}`))
		require.NoError(t, err)
		assert.Equal(t, "Fixed Costs", c.Category)
		assert.Equal(t, []string{"Legal"}, c.Tags)
	})

	t.Run("tags that are not an array", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"title":"A","summary":"B","tags":"QOCS"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Legal"}, c.Tags)
	})

	t.Run("empty tag array", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"title":"A","summary":"B","tags":[]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"Legal"}, c.Tags)
		assert.Equal(t, "Legal", c.Category)
	})

	t.Run("missing date uses today", func(t *testing.T) {
		c, warnings, err := tr.TransformCase(parseOne(t, `{"title":"A","summary":"B"}`))
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.Equal(t, "2025-03-14", c.Date)
	})

	t.Run("unparseable date uses today with a warning", func(t *testing.T) {
		c, warnings, err := tr.TransformCase(parseOne(t, `{"title":"A","summary":"B","date":"Michaelmas term"}`))
		require.NoError(t, err)
		assert.Equal(t, "2025-03-14", c.Date)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "Michaelmas term")
	})

	t.Run("string id", func(t *testing.T) {
		raw := parseOne(t, `{"id":"legacy-7","title":"A","summary":"B"}`)
		assert.Equal(t, "legacy-7", raw.ExternalID)
	})
}

func TestTransformCaseRejectsInvalidRecords(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)
	tests := map[string]struct {
		data string
		err  error
	}{
		"missing title":   {data: `{"summary":"B"}`, err: ErrMissingTitle},
		"blank title":     {data: `{"title":"  ","summary":"B"}`, err: ErrMissingTitle},
		"numeric title":   {data: `{"title":7,"summary":"B"}`, err: ErrInvalidTitle},
		"missing summary": {data: `{"title":"A"}`, err: ErrMissingSummary},
		"number element":  {data: `42`, err: ErrNotObject},
		"null element":    {data: `null`, err: ErrNotObject},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := tr.TransformCase(parseOne(t, tt.data))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTransformCasesDropsInvalidRecords(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := NewTransformer(zap.New(core), fixedNow)

	raws, err := ParseRawCases([]byte(`[
		{"title":"Good one","summary":"ok","date":"2024-01-01"},
		{"summary":"no title"},
		{"title":"Bad date","summary":"ok","date":"soon"},
		{"title":"No summary"}
	]`))
	require.NoError(t, err)

	batch := tr.TransformCases(raws)
	require.Len(t, batch.Cases, 2)
	assert.Equal(t, "good-one", batch.Cases[0].Slug)
	assert.Equal(t, "bad-date", batch.Cases[1].Slug)

	require.Len(t, batch.Rejected, 2)
	assert.Equal(t, 1, batch.Rejected[0].Index)
	assert.Equal(t, ErrMissingTitle.Error(), batch.Rejected[0].Reason)
	assert.Equal(t, 3, batch.Rejected[1].Index)
	assert.Equal(t, "No summary", batch.Rejected[1].Title)

	require.Len(t, batch.Warnings, 1)
	assert.Equal(t, 2, batch.Warnings[0].Index)

	assert.Equal(t, 2, logs.FilterMessage("skipping case record").Len())
	assert.Equal(t, 1, logs.FilterMessage("case record adjusted").Len())
}

func TestParseRawCases(t *testing.T) {
	wrapped, err := ParseRawCases([]byte(`{"cases":[{"title":"A","summary":"B"}]}`))
	require.NoError(t, err)
	require.Len(t, wrapped, 1)
	assert.Equal(t, "A", wrapped[0].Title)

	_, err = ParseRawCases([]byte(`{"title":"A"}`))
	assert.ErrorIs(t, err, ErrNotCaseList)

	_, err = ParseRawCases([]byte(`"nope"`))
	assert.ErrorIs(t, err, ErrNotCaseList)

	_, err = ParseRawCases([]byte(`[{"title":"A"`))
	assert.Error(t, err)
}

func TestTransformCasesRejectsNonObjectElements(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)

	raws, err := ParseRawCases([]byte(`[
		{"title":"Smith v Jones","summary":"A dispute about costs."},
		42,
		null,
		"oops",
		[]
	]`))
	require.NoError(t, err)
	require.Len(t, raws, 5)

	batch := tr.TransformCases(raws)
	require.Len(t, batch.Cases, 1)
	assert.Equal(t, "smith-v-jones", batch.Cases[0].Slug)
	require.Len(t, batch.Rejected, 4)
	for i, rejection := range batch.Rejected {
		assert.Equal(t, i+1, rejection.Index)
		assert.Equal(t, ErrNotObject.Error(), rejection.Reason)
	}
}

func TestTransformCaseFallbackSlug(t *testing.T) {
	tr := NewTransformer(nil, fixedNow)

	t.Run("punctuation title", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"title":"!!!","summary":"A dispute about costs."}`))
		require.NoError(t, err)
		assert.Regexp(t, `^case-[0-9a-f]{10}$`, c.Slug)

		again, _, err := tr.TransformCase(parseOne(t, `{"title":"!!!","summary":"Other"}`))
		require.NoError(t, err)
		assert.Equal(t, c.Slug, again.Slug)
	})

	t.Run("non-latin title", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"title":"費用の判決","summary":"B"}`))
		require.NoError(t, err)
		assert.NotEmpty(t, c.Slug)
		assert.NotEqual(t, SlugOr("case", "!!!"), c.Slug)
	})

	t.Run("external id", func(t *testing.T) {
		c, _, err := tr.TransformCase(parseOne(t, `{"_id":{"$oid":"65AB12"},"title":"???","summary":"B"}`))
		require.NoError(t, err)
		assert.Equal(t, "case-65ab12", c.Slug)
	})
}
