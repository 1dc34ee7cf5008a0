package search

import (
	"costlaw/api/internal/store"
)

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultCase    ResultType = "case"
	ResultNews    ResultType = "news"
	ResultService ResultType = "service"
)

// ParseResultType maps a query parameter to a filter. Unknown values and
// the "all" sentinel mean no filter.
func ParseResultType(value string) ResultType {
	switch ResultType(value) {
	case ResultCase, ResultNews, ResultService:
		return ResultType(value)
	case "cases":
		return ResultCase
	case "services":
		return ResultService
	default:
		return ""
	}
}

// Result is a single search hit returned to the caller.
type Result struct {
	Type    ResultType `json:"type"`
	ID      int64      `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Slug    string     `json:"slug"`
	Date    string     `json:"date,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Engine  string   `json:"engine"`
}

// CaseRecord is the data we index for a case.
type CaseRecord struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
	Slug     string   `json:"slug"`
}

// NewsRecord is the data we index for a news item.
type NewsRecord struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Slug     string `json:"slug"`
}

// ServiceRecord is the data we index for a service.
type ServiceRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}

func CaseRecordFrom(c store.Case) CaseRecord {
	return CaseRecord{
		ID:       c.ID,
		Title:    c.Title,
		Summary:  c.Summary,
		Content:  c.Content,
		Category: c.Category,
		Date:     c.Date,
		Author:   c.Author,
		Tags:     append([]string(nil), c.Tags...),
		Slug:     c.Slug,
	}
}

func NewsRecordFrom(n store.News) NewsRecord {
	return NewsRecord{
		ID:       n.ID,
		Title:    n.Title,
		Summary:  n.Summary,
		Content:  n.Content,
		Category: n.Category,
		Date:     n.Date,
		Slug:     n.Slug,
	}
}

func ServiceRecordFrom(s store.Service) ServiceRecord {
	return ServiceRecord{ID: s.ID, Title: s.Title, Description: s.Description, Slug: s.Slug}
}
