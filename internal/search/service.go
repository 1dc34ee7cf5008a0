package search

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"costlaw/api/internal/store"
)

const (
	EngineMeili = "meilisearch"
	EngineStore = "store"
)

// Engine is the index backend. *Meili is the production implementation.
type Engine interface {
	Healthy() bool
	Search(q Query) ([]Result, int, error)
	IndexCases(cases []CaseRecord) error
	IndexNews(news []NewsRecord) error
	IndexServices(services []ServiceRecord) error
	DeleteCase(id int64) error
	DeleteNews(id int64) error
	DeleteService(id int64) error
}

const queueSize = 256

type indexJob struct {
	op string
	id int64
	fn func() error
}

// Service is the facade that tries Meilisearch first and falls back to the
// store. Index updates go through one queue and reach the engine in the
// order they were requested.
type Service struct {
	engine   Engine
	fallback *StoreSearcher
	src      Source
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan indexJob
	done   chan struct{}
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, src Source, logger *zap.Logger) *Service {
	if meili == nil {
		return NewServiceWithEngine(nil, src, logger)
	}
	return NewServiceWithEngine(meili, src, logger)
}

func NewServiceWithEngine(engine Engine, src Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{engine: engine, fallback: NewStoreSearcher(src), src: src, logger: logger.Named("search")}
	if engine != nil {
		s.jobs = make(chan indexJob, queueSize)
		s.done = make(chan struct{})
		go s.run()
	}
	return s
}

// Close applies queued index updates and stops the worker.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed || s.jobs == nil {
		s.closed = true
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	<-s.done
}

func (s *Service) indexing() bool {
	return s.engine != nil && s.engine.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to the store.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.indexing() {
		results, total, err := s.engine.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: EngineMeili}
		}
		s.logger.Warn("meilisearch error, falling back to store", zap.Error(err))
	}

	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.logger.Error("store search failed", zap.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Engine: EngineStore}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: EngineStore}
}

// IndexCase indexes a case (fire-and-forget to Meilisearch).
func (s *Service) IndexCase(c store.Case) {
	s.async("index case", c.ID, func() error { return s.engine.IndexCases([]CaseRecord{CaseRecordFrom(c)}) })
}

func (s *Service) IndexNews(n store.News) {
	s.async("index news", n.ID, func() error { return s.engine.IndexNews([]NewsRecord{NewsRecordFrom(n)}) })
}

func (s *Service) IndexService(svc store.Service) {
	s.async("index service", svc.ID, func() error { return s.engine.IndexServices([]ServiceRecord{ServiceRecordFrom(svc)}) })
}

func (s *Service) RemoveCase(id int64) {
	s.async("delete case", id, func() error { return s.engine.DeleteCase(id) })
}

func (s *Service) RemoveNews(id int64) {
	s.async("delete news", id, func() error { return s.engine.DeleteNews(id) })
}

func (s *Service) RemoveService(id int64) {
	s.async("delete service", id, func() error { return s.engine.DeleteService(id) })
}

func (s *Service) async(op string, id int64, fn func() error) {
	if !s.indexing() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.jobs <- indexJob{op: op, id: id, fn: fn}:
	default:
		s.logger.Warn("index queue full, update dropped until next reindex", zap.String("op", op), zap.Int64("id", id))
	}
}

func (s *Service) run() {
	defer close(s.done)
	for job := range s.jobs {
		if err := job.fn(); err != nil {
			s.logger.Warn(job.op, zap.Int64("id", job.id), zap.Error(err))
		}
	}
}

// Reindex pushes every searchable entity from the store to Meilisearch.
// Called during bootstrap and after bulk imports.
func (s *Service) Reindex(ctx context.Context) {
	if !s.indexing() {
		return
	}
	cases, err := s.src.ListCases(ctx)
	if err != nil {
		s.logger.Warn("reindex: list cases", zap.Error(err))
		return
	}
	news, err := s.src.ListNews(ctx)
	if err != nil {
		s.logger.Warn("reindex: list news", zap.Error(err))
		return
	}
	services, err := s.src.ListServices(ctx)
	if err != nil {
		s.logger.Warn("reindex: list services", zap.Error(err))
		return
	}

	caseRecords := make([]CaseRecord, 0, len(cases))
	for _, c := range cases {
		caseRecords = append(caseRecords, CaseRecordFrom(c))
	}
	newsRecords := make([]NewsRecord, 0, len(news))
	for _, n := range news {
		newsRecords = append(newsRecords, NewsRecordFrom(n))
	}
	serviceRecords := make([]ServiceRecord, 0, len(services))
	for _, svc := range services {
		serviceRecords = append(serviceRecords, ServiceRecordFrom(svc))
	}

	if err := s.engine.IndexCases(caseRecords); err != nil {
		s.logger.Warn("reindex cases", zap.Error(err))
	}
	if err := s.engine.IndexNews(newsRecords); err != nil {
		s.logger.Warn("reindex news", zap.Error(err))
	}
	if err := s.engine.IndexServices(serviceRecords); err != nil {
		s.logger.Warn("reindex services", zap.Error(err))
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
