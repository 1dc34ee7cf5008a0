package search

import (
	"context"
	"fmt"
	"strings"

	"costlaw/api/internal/store"
)

// Source is the read side of the store that the fallback searcher and the
// reindexer use.
type Source interface {
	SearchCases(ctx context.Context, q store.CaseQuery) ([]store.Case, error)
	ListCases(ctx context.Context) ([]store.Case, error)
	ListNews(ctx context.Context) ([]store.News, error)
	ListServices(ctx context.Context) ([]store.Service, error)
}

// StoreSearcher answers queries straight from the store with substring
// matching. It is used whenever Meilisearch is absent or unhealthy.
type StoreSearcher struct {
	src Source
}

func NewStoreSearcher(src Source) *StoreSearcher {
	return &StoreSearcher{src: src}
}

func (s *StoreSearcher) Search(ctx context.Context, q Query) ([]Result, int, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, 0, nil
	}
	needle := strings.ToLower(text)

	var results []Result
	if q.FilterType == "" || q.FilterType == ResultCase {
		cases, err := s.src.SearchCases(ctx, store.CaseQuery{Text: text})
		if err != nil {
			return nil, 0, fmt.Errorf("search cases: %w", err)
		}
		for _, c := range cases {
			results = append(results, Result{Type: ResultCase, ID: c.ID, Title: c.Title, Snippet: c.Summary, Slug: c.Slug, Date: c.Date})
		}
	}
	if q.FilterType == "" || q.FilterType == ResultNews {
		news, err := s.src.ListNews(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("list news: %w", err)
		}
		for _, n := range news {
			if containsAny(needle, n.Title, n.Summary, n.Content, n.Category) {
				results = append(results, Result{Type: ResultNews, ID: n.ID, Title: n.Title, Snippet: n.Summary, Slug: n.Slug, Date: n.Date})
			}
		}
	}
	if q.FilterType == "" || q.FilterType == ResultService {
		services, err := s.src.ListServices(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("list services: %w", err)
		}
		for _, svc := range services {
			if containsAny(needle, svc.Title, svc.Description) {
				results = append(results, Result{Type: ResultService, ID: svc.ID, Title: svc.Title, Snippet: svc.Description, Slug: svc.Slug})
			}
		}
	}

	total := len(results)
	return page(results, q.Offset, q.Limit), total, nil
}

func containsAny(needle string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func page(results []Result, offset, limit int) []Result {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return nil
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}
