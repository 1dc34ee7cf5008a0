package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ Storage = (*MemoryStore)(nil)

// MemoryStore keeps every entity in process memory. Cases are persisted to a
// JSON snapshot after each mutation and reloaded on start.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[int64]User
	cases         map[int64]Case
	services      map[int64]Service
	news          map[int64]News
	contacts      map[int64]Contact
	community     *Community
	subscriptions map[int64]Subscription
	team          map[int64]TeamMember

	nextUser         int64
	nextCase         int64
	nextService      int64
	nextNews         int64
	nextContact      int64
	nextSubscription int64
	nextTeam         int64

	opts   SnapshotOptions
	logger *zap.Logger
	now    func() time.Time
	closed bool
	// pending holds at most the latest snapshot not yet uploaded. A single
	// worker drains it, so uploads never overtake each other.
	pending    chan []byte
	mirrorDone chan struct{}
}

func NewMemoryStore(opts SnapshotOptions) *MemoryStore {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.SinkTimeout <= 0 {
		opts.SinkTimeout = 30 * time.Second
	}
	s := &MemoryStore{
		users:            map[int64]User{},
		cases:            map[int64]Case{},
		services:         map[int64]Service{},
		news:             map[int64]News{},
		contacts:         map[int64]Contact{},
		subscriptions:    map[int64]Subscription{},
		team:             map[int64]TeamMember{},
		nextUser:         1,
		nextCase:         1,
		nextService:      1,
		nextNews:         1,
		nextContact:      1,
		nextSubscription: 1,
		nextTeam:         1,
		opts:             opts,
		logger:           logger.Named("memory_store"),
		now:              now,
	}
	s.hydrate()
	if s.opts.Sink != nil {
		s.pending = make(chan []byte, 1)
		s.mirrorDone = make(chan struct{})
		go s.runMirror()
	}
	return s
}

func (s *MemoryStore) hydrate() {
	if s.opts.Path == "" {
		return
	}
	cases, err := readSnapshot(s.opts.Path)
	if err != nil {
		s.quarantine(err)
		return
	}
	for _, c := range cases {
		if c.Tags == nil {
			c.Tags = []string{}
		}
		s.cases[c.ID] = c
		if c.ID >= s.nextCase {
			s.nextCase = c.ID + 1
		}
	}
	if len(cases) > 0 {
		s.logger.Info("loaded case snapshot", zap.String("path", s.opts.Path), zap.Int("cases", len(cases)))
	}
}

// persistCasesLocked must be called with the write lock held.
func (s *MemoryStore) persistCasesLocked() {
	if s.opts.Path == "" && s.opts.Sink == nil {
		return
	}
	all := make([]Case, 0, len(s.cases))
	for _, c := range s.cases {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	data, err := encodeSnapshot(all)
	if err != nil {
		s.logger.Error("encode case snapshot", zap.Error(err))
		return
	}
	if s.opts.Path != "" {
		if err := writeFileAtomic(s.opts.Path, data); err != nil {
			s.logger.Error("write case snapshot", zap.String("path", s.opts.Path), zap.Error(err))
		}
	}
	if s.opts.Sink != nil && !s.closed {
		s.mirror(data)
	}
}

// quarantine moves an unreadable snapshot aside so the next write cannot
// replace the only copy. If the move fails, persistence is switched off.
func (s *MemoryStore) quarantine(cause error) {
	aside := fmt.Sprintf("%s.corrupt-%s", s.opts.Path, s.timestamp().Format("20060102T150405Z"))
	if err := os.Rename(s.opts.Path, aside); err != nil {
		s.logger.Error("case snapshot unreadable and could not be moved aside, persistence disabled",
			zap.String("path", s.opts.Path), zap.Error(cause), zap.NamedError("rename_error", err))
		s.opts.Path = ""
		s.opts.Sink = nil
		return
	}
	s.logger.Warn("case snapshot unreadable, starting empty",
		zap.String("path", s.opts.Path), zap.String("moved_to", aside), zap.Error(cause))
}

// mirror replaces any snapshot still waiting for upload. It is called with
// the write lock held, so there is a single producer.
func (s *MemoryStore) mirror(data []byte) {
	select {
	case <-s.pending:
	default:
	}
	s.pending <- data
}

func (s *MemoryStore) runMirror() {
	defer close(s.mirrorDone)
	name := SnapshotName(s.opts.Path)
	for data := range s.pending {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.SinkTimeout)
		if err := s.opts.Sink.PutSnapshot(ctx, name, data); err != nil {
			s.logger.Warn("mirror case snapshot", zap.String("name", name), zap.Error(err))
		}
		cancel()
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close uploads the latest pending snapshot and stops the mirror worker.
// Later mutations are still written to disk but no longer mirrored.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed || s.pending == nil {
		s.closed = true
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.pending)
	s.mu.Unlock()
	<-s.mirrorDone
	return nil
}

func (s *MemoryStore) timestamp() time.Time {
	return s.now().UTC()
}

func (s *MemoryStore) GetUser(_ context.Context, id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) CreateUser(_ context.Context, input NewUser) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == input.Username || existing.Email == input.Email {
			return User{}, ErrConflict
		}
	}
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	user := User{
		ID:       s.nextUser,
		Username: input.Username,
		Password: input.Password,
		Email:    input.Email,
		Name:     input.Name,
		Role:     role,
	}
	s.nextUser++
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) ListCases(_ context.Context) ([]Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Case, 0, len(s.cases))
	for _, c := range s.cases {
		out = append(out, cloneCase(c))
	}
	SortCasesNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) GetCase(_ context.Context, id int64) (Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return Case{}, ErrNotFound
	}
	return cloneCase(c), nil
}

func (s *MemoryStore) GetCaseBySlug(_ context.Context, slug string) (Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.caseBySlugLocked(slug); ok {
		return cloneCase(c), nil
	}
	return Case{}, ErrNotFound
}

func (s *MemoryStore) caseBySlugLocked(slug string) (Case, bool) {
	for _, c := range s.cases {
		if c.Slug == slug {
			return c, true
		}
	}
	return Case{}, false
}

func (s *MemoryStore) SearchCases(_ context.Context, query CaseQuery) ([]Case, error) {
	q := normalizedQuery(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Case{}
	for _, c := range s.cases {
		if matchesCase(c, q) {
			out = append(out, cloneCase(c))
		}
	}
	SortCasesNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) CreateCase(_ context.Context, input NewCase) (Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.caseBySlugLocked(input.Slug); taken {
		return Case{}, ErrConflict
	}
	c := s.insertCaseLocked(input)
	s.persistCasesLocked()
	return cloneCase(c), nil
}

func (s *MemoryStore) insertCaseLocked(input NewCase) Case {
	tags := append([]string{}, input.Tags...)
	c := Case{
		ID:        s.nextCase,
		Title:     input.Title,
		Summary:   input.Summary,
		Content:   input.Content,
		Category:  input.Category,
		Date:      input.Date,
		Author:    input.Author,
		Tags:      tags,
		Slug:      input.Slug,
		CreatedAt: s.timestamp(),
	}
	s.nextCase++
	s.cases[c.ID] = c
	return c
}

func (s *MemoryStore) ImportCases(_ context.Context, inputs []NewCase) (ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := ImportResult{Imported: []Case{}, Skipped: []string{}}
	for _, input := range inputs {
		if _, taken := s.caseBySlugLocked(input.Slug); taken {
			result.Skipped = append(result.Skipped, input.Title)
			continue
		}
		result.Imported = append(result.Imported, cloneCase(s.insertCaseLocked(input)))
	}
	if len(result.Imported) > 0 {
		s.persistCasesLocked()
	}
	return result, nil
}

func (s *MemoryStore) UpdateCase(_ context.Context, id int64, patch CasePatch) (Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[id]
	if !ok {
		return Case{}, ErrNotFound
	}
	if patch.Slug != nil && *patch.Slug != c.Slug {
		if _, taken := s.caseBySlugLocked(*patch.Slug); taken {
			return Case{}, ErrConflict
		}
	}
	patch.apply(&c)
	s.cases[id] = c
	s.persistCasesLocked()
	return cloneCase(c), nil
}

func (s *MemoryStore) DeleteCase(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return ErrNotFound
	}
	delete(s.cases, id)
	s.persistCasesLocked()
	return nil
}

func (s *MemoryStore) ListServices(_ context.Context) ([]Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.services, func(v Service) int64 { return v.ID }), nil
}

func (s *MemoryStore) GetService(_ context.Context, id int64) (Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) GetServiceBySlug(_ context.Context, slug string) (Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.services {
		if item.Slug == slug {
			return item, nil
		}
	}
	return Service{}, ErrNotFound
}

func (s *MemoryStore) serviceSlugTaken(slug string, except int64) bool {
	for _, item := range s.services {
		if item.Slug == slug && item.ID != except {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateService(_ context.Context, input NewService) (Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.serviceSlugTaken(input.Slug, 0) {
		return Service{}, ErrConflict
	}
	item := Service{
		ID:          s.nextService,
		Title:       input.Title,
		Description: input.Description,
		Icon:        input.Icon,
		Slug:        input.Slug,
	}
	s.nextService++
	s.services[item.ID] = item
	return item, nil
}

func (s *MemoryStore) UpdateService(_ context.Context, id int64, patch ServicePatch) (Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	if patch.Slug != nil && s.serviceSlugTaken(*patch.Slug, id) {
		return Service{}, ErrConflict
	}
	patch.apply(&item)
	s.services[id] = item
	return item, nil
}

func (s *MemoryStore) DeleteService(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[id]; !ok {
		return ErrNotFound
	}
	delete(s.services, id)
	return nil
}

func (s *MemoryStore) ListNews(_ context.Context) ([]News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.news, func(v News) int64 { return v.ID }), nil
}

func (s *MemoryStore) GetNews(_ context.Context, id int64) (News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.news[id]
	if !ok {
		return News{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) GetNewsBySlug(_ context.Context, slug string) (News, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.news {
		if item.Slug == slug {
			return item, nil
		}
	}
	return News{}, ErrNotFound
}

func (s *MemoryStore) newsSlugTaken(slug string, except int64) bool {
	for _, item := range s.news {
		if item.Slug == slug && item.ID != except {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateNews(_ context.Context, input NewNews) (News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newsSlugTaken(input.Slug, 0) {
		return News{}, ErrConflict
	}
	item := News{
		ID:       s.nextNews,
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		Date:     input.Date,
		Author:   input.Author,
		ImageURL: nullable(input.ImageURL),
		Slug:     input.Slug,
	}
	s.nextNews++
	s.news[item.ID] = item
	return item, nil
}

func (s *MemoryStore) UpdateNews(_ context.Context, id int64, patch NewsPatch) (News, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.news[id]
	if !ok {
		return News{}, ErrNotFound
	}
	if patch.Slug != nil && s.newsSlugTaken(*patch.Slug, id) {
		return News{}, ErrConflict
	}
	patch.apply(&item)
	s.news[id] = item
	return item, nil
}

func (s *MemoryStore) DeleteNews(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.news[id]; !ok {
		return ErrNotFound
	}
	delete(s.news, id)
	return nil
}

func (s *MemoryStore) CreateContact(_ context.Context, input NewContact) (Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := Contact{
		ID:        s.nextContact,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     nullable(input.Phone),
		Service:   nullable(input.Service),
		Message:   input.Message,
		CreatedAt: s.timestamp(),
	}
	s.nextContact++
	s.contacts[item.ID] = item
	return item, nil
}

func (s *MemoryStore) ListContacts(_ context.Context) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.contacts, func(v Contact) int64 { return v.ID }), nil
}

func (s *MemoryStore) GetCommunity(_ context.Context) (Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.community == nil {
		return Community{}, ErrNotFound
	}
	return cloneCommunity(*s.community), nil
}

func (s *MemoryStore) UpdateCommunity(_ context.Context, patch CommunityPatch) (Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.community == nil {
		s.community = &Community{ID: 1}
	}
	patch.apply(s.community)
	return cloneCommunity(*s.community), nil
}

func cloneCommunity(c Community) Community {
	if c.Settings != nil {
		c.Settings = append(json.RawMessage(nil), c.Settings...)
	}
	return c
}

func (s *MemoryStore) CreateSubscription(_ context.Context, input NewSubscription) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subscriptions {
		if strings.EqualFold(existing.Email, input.Email) {
			return existing, nil
		}
	}
	item := Subscription{ID: s.nextSubscription, Email: input.Email, CreatedAt: s.timestamp()}
	s.nextSubscription++
	s.subscriptions[item.ID] = item
	return item, nil
}

func (s *MemoryStore) ListSubscriptions(_ context.Context) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.subscriptions, func(v Subscription) int64 { return v.ID }), nil
}

func (s *MemoryStore) DeleteSubscription(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[id]; !ok {
		return ErrNotFound
	}
	delete(s.subscriptions, id)
	return nil
}

func (s *MemoryStore) ListTeamMembers(_ context.Context) ([]TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedByID(s.team, func(v TeamMember) int64 { return v.ID }), nil
}

func (s *MemoryStore) GetTeamMember(_ context.Context, id int64) (TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.team[id]
	if !ok {
		return TeamMember{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) CreateTeamMember(_ context.Context, input NewTeamMember) (TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := TeamMember{
		ID:       s.nextTeam,
		Name:     input.Name,
		Position: input.Position,
		Bio:      input.Bio,
		ImageURL: nullable(input.ImageURL),
		LinkedIn: nullable(input.LinkedIn),
		Twitter:  nullable(input.Twitter),
		Email:    nullable(input.Email),
	}
	s.nextTeam++
	s.team[item.ID] = item
	return item, nil
}

func (s *MemoryStore) UpdateTeamMember(_ context.Context, id int64, patch TeamMemberPatch) (TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.team[id]
	if !ok {
		return TeamMember{}, ErrNotFound
	}
	patch.apply(&item)
	s.team[id] = item
	return item, nil
}

func (s *MemoryStore) DeleteTeamMember(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.team[id]; !ok {
		return ErrNotFound
	}
	delete(s.team, id)
	return nil
}

func sortedByID[T any](items map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}
