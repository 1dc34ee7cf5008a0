package search

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const (
	idxCases    = "costlaw_cases"
	idxNews     = "costlaw_news"
	idxServices = "costlaw_services"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	logger  *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes. An
// unreachable server is not an error; the health loop keeps retrying.
func NewMeili(url, apiKey string, logger *zap.Logger) *Meili {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		logger: logger.Named("meili"),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		m.logger.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxCases,
			filterable: []string{"category", "tags"},
			searchable: []string{"title", "summary", "content", "author", "tags"},
		},
		{
			uid:        idxNews,
			filterable: []string{"category"},
			searchable: []string{"title", "summary", "content"},
		},
		{
			uid:        idxServices,
			searchable: []string{"title", "description"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: "id",
		}); err != nil {
			m.logger.Debug("create index (may already exist)", zap.String("index", idx.uid), zap.Error(err))
		}

		index := m.client.Index(idx.uid)
		if len(idx.filterable) > 0 {
			filterable := make([]interface{}, len(idx.filterable))
			for i, v := range idx.filterable {
				filterable[i] = v
			}
			if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
				m.logger.Warn("update filterable attributes", zap.String("index", idx.uid), zap.Error(err))
			}
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			m.logger.Warn("update searchable attributes", zap.String("index", idx.uid), zap.Error(err))
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				m.logger.Info("meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

var indexTypes = []struct {
	uid  string
	rtyp ResultType
}{
	{idxCases, ResultCase},
	{idxNews, ResultNews},
	{idxServices, ResultService},
}

// Search queries every index (or the filtered one) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	for _, ti := range indexTypes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              ti.uid,
			Query:                 q.Text,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"title", "summary", "description"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
		})
	}
	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}
	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	for _, ti := range indexTypes {
		if ti.uid == uid {
			return ti.rtyp
		}
	}
	return ""
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{
		Type:  rtyp,
		ID:    decodeInt(hit, "id"),
		Slug:  decodeString(hit, "slug"),
		Date:  decodeString(hit, "date"),
		Title: firstNonBlank(decodeFormattedString(hit, "title"), decodeString(hit, "title")),
	}
	snippetField := "summary"
	if rtyp == ResultService {
		snippetField = "description"
	}
	r.Snippet = firstNonBlank(decodeFormattedString(hit, snippetField), decodeString(hit, snippetField))
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt(hit meili.Hit, key string) int64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(formatted[key], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func (m *Meili) IndexCases(cases []CaseRecord) error {
	if len(cases) == 0 {
		return nil
	}
	_, err := m.client.Index(idxCases).AddDocuments(cases, nil)
	return err
}

func (m *Meili) IndexNews(news []NewsRecord) error {
	if len(news) == 0 {
		return nil
	}
	_, err := m.client.Index(idxNews).AddDocuments(news, nil)
	return err
}

func (m *Meili) IndexServices(services []ServiceRecord) error {
	if len(services) == 0 {
		return nil
	}
	_, err := m.client.Index(idxServices).AddDocuments(services, nil)
	return err
}

func (m *Meili) delete(uid string, id int64) error {
	_, err := m.client.Index(uid).DeleteDocument(strconv.FormatInt(id, 10), nil)
	return err
}

func (m *Meili) DeleteCase(id int64) error    { return m.delete(idxCases, id) }
func (m *Meili) DeleteNews(id int64) error    { return m.delete(idxNews, id) }
func (m *Meili) DeleteService(id int64) error { return m.delete(idxServices, id) }
