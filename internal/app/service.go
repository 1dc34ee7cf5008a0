package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"costlaw/api/internal/auth"
	"costlaw/api/internal/authpw"
	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/config"
	"costlaw/api/internal/metrics"
	"costlaw/api/internal/notify"
	"costlaw/api/internal/search"
	"costlaw/api/internal/seed"
	"costlaw/api/internal/session"
	"costlaw/api/internal/sitemap"
	"costlaw/api/internal/store"
)

// Options carries the collaborators of a Service. Only Config and Store are
// required.
type Options struct {
	Config   config.Config
	Store    store.Storage
	Issuer   *auth.Issuer
	Revoker  session.Revoker
	Notifier notify.Notifier
	Search   *search.Service
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
	// BcryptCost of zero uses bcrypt's default.
	BcryptCost int
	Now        func() time.Time
}

type Service struct {
	cfg         config.Config
	store       store.Storage
	issuer      *auth.Issuer
	passwords   *authpw.Service
	revoker     session.Revoker
	notifier    notify.Notifier
	search      *search.Service
	transformer *caselaw.Transformer
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	issuer := opts.Issuer
	if issuer == nil {
		issuer = auth.NewIssuer(opts.Config.JWTSecret, opts.Config.TokenTTL)
		issuer.Now = now
	}
	revoker := opts.Revoker
	if revoker == nil {
		revoker = session.NewMemoryStore()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = disabledNotifier{}
	}
	searcher := opts.Search
	if searcher == nil {
		searcher = search.NewService(nil, opts.Store, logger)
	}
	return &Service{
		cfg:         opts.Config,
		store:       opts.Store,
		issuer:      issuer,
		passwords:   authpw.NewService(opts.Store, opts.BcryptCost),
		revoker:     revoker,
		notifier:    notifier,
		search:      searcher,
		transformer: caselaw.NewTransformer(logger, now),
		metrics:     opts.Metrics,
		logger:      logger.Named("app"),
		now:         now,
	}
}

// Bootstrap ensures the admin account exists, seeds empty collections and
// pushes the current content to the search index.
func (s *Service) Bootstrap(ctx context.Context) error {
	admin := s.cfg.Admin
	if admin.Password == "" {
		s.logger.Warn("ADMIN_PASSWORD not set, admin account not ensured", zap.String("username", admin.Username))
	} else {
		user, created, err := s.passwords.EnsureAccount(ctx, authpw.AccountRequest{
			Username: admin.Username,
			Password: admin.Password,
			Email:    admin.Email,
			Name:     admin.Name,
			Role:     store.RoleAdmin,
		})
		if err != nil {
			return fmt.Errorf("ensure admin account: %w", err)
		}
		if created {
			s.logger.Info("admin account created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
		}
	}

	if s.cfg.SeedData {
		if _, err := seed.Apply(ctx, s.store, s.transformer, s.logger); err != nil {
			return fmt.Errorf("seed data: %w", err)
		}
	}

	s.search.Reindex(ctx)
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	return s.search.Search(ctx, q)
}

// Sitemap renders the sitemap for hostname, which has no trailing slash.
func (s *Service) Sitemap(ctx context.Context, hostname string) ([]byte, error) {
	set, err := sitemap.Build(ctx, s.store, hostname)
	if err != nil {
		return nil, err
	}
	return sitemap.Render(set)
}

// lookupErr turns a store miss into a 404 for the named entity.
func lookupErr(what string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(what)
	}
	return err
}

type disabledNotifier struct{}

func (disabledNotifier) PublishCase(context.Context, store.Case) (store.Case, error) {
	return store.Case{}, notify.ErrWebhookNotConfigured
}

func (disabledNotifier) QueueCasePublish(store.Case) {}

func (disabledNotifier) QueueContact(store.Contact) {}
