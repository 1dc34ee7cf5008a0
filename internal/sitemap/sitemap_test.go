package sitemap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costlaw/api/internal/store"
)

func populated(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore(store.SnapshotOptions{})
	_, err := s.CreateCase(ctx, store.NewCase{Title: "Smith v Jones", Summary: "s", Date: "2024-02-15", Tags: []string{"Legal"}, Slug: "smith-v-jones"})
	require.NoError(t, err)
	_, err = s.CreateCase(ctx, store.NewCase{Title: "Undated", Summary: "s", Date: "sometime", Tags: []string{"Legal"}, Slug: "undated"})
	require.NoError(t, err)
	_, err = s.CreateService(ctx, store.NewService{Title: "Costs Budgeting", Description: "d", Icon: "calculator", Slug: "costs-budgeting"})
	require.NoError(t, err)
	_, err = s.CreateNews(ctx, store.NewNews{Title: "Update", Summary: "s", Content: "c", Category: "News", Date: "2024-03-01", Author: "a", Slug: "update"})
	require.NoError(t, err)
	_, err = s.CreateTeamMember(ctx, store.NewTeamMember{Name: "William Mackenzie", Position: "Costs Lawyer", Bio: "b"})
	require.NoError(t, err)
	return s
}

func TestBuildListsStaticAndDynamicPages(t *testing.T) {
	set, err := Build(context.Background(), populated(t), "https://example.test/")
	require.NoError(t, err)

	byLoc := map[string]URL{}
	for _, u := range set.URLs {
		byLoc[u.Loc] = u
	}
	assert.Len(t, set.URLs, len(staticPages)+5)

	home := byLoc["https://example.test/"]
	assert.Equal(t, 1.0, home.Priority)
	assert.Equal(t, "weekly", home.ChangeFreq)
	assert.Equal(t, "daily", byLoc["https://example.test/cases"].ChangeFreq)

	c := byLoc["https://example.test/cases/smith-v-jones"]
	assert.Equal(t, 0.8, c.Priority)
	assert.Equal(t, "2024-02-15T00:00:00Z", c.LastMod)
	assert.Empty(t, byLoc["https://example.test/cases/undated"].LastMod)

	assert.Equal(t, 0.7, byLoc["https://example.test/services/costs-budgeting"].Priority)
	assert.Equal(t, "2024-03-01T00:00:00Z", byLoc["https://example.test/news/update"].LastMod)
	assert.Contains(t, byLoc, "https://example.test/team/1")
}

func TestRender(t *testing.T) {
	set := URLSet{Xmlns: xmlns, URLs: []URL{{Loc: "https://example.test/", ChangeFreq: "weekly", Priority: 1}}}
	out, err := Render(set)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, text, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, text, "<loc>https://example.test/</loc>")
	assert.Contains(t, text, "<priority>1</priority>")
	assert.NotContains(t, text, "<lastmod>")
}

type failingSource struct{ *store.MemoryStore }

func (failingSource) ListNews(context.Context) ([]store.News, error) {
	return nil, errors.New("boom")
}

func TestBuildPropagatesErrors(t *testing.T) {
	_, err := Build(context.Background(), failingSource{store.NewMemoryStore(store.SnapshotOptions{})}, "https://example.test")
	require.Error(t, err)
}
