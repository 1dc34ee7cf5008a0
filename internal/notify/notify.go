// Package notify delivers side-effect notifications for new cases and
// contact submissions. Queued notifications run in the background with
// their own deadline; their failure is logged and never reaches the request
// that caused them.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"costlaw/api/internal/email"
	"costlaw/api/internal/store"
)

const (
	ChannelDiscord = "discord"
	ChannelEmail   = "email"
)

type Notifier interface {
	// PublishCase posts synchronously and returns the case as marked.
	PublishCase(ctx context.Context, c store.Case) (store.Case, error)
	QueueCasePublish(c store.Case)
	QueueContact(c store.Contact)
}

type FailureCounter interface {
	NotifyFailed(channel string)
}

type Service struct {
	discord  *Discord
	contacts *ContactMailer
	logger   *zap.Logger
	timeout  time.Duration
	failures FailureCounter
	wg       sync.WaitGroup
}

type Options struct {
	Logger   *zap.Logger
	Timeout  time.Duration
	Failures FailureCounter
}

func NewService(discord *Discord, contacts *ContactMailer, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		discord:  discord,
		contacts: contacts,
		logger:   logger.Named("notify"),
		timeout:  timeout,
		failures: opts.Failures,
	}
}

func (s *Service) PublishCase(ctx context.Context, c store.Case) (store.Case, error) {
	if s.discord == nil {
		return store.Case{}, ErrWebhookNotConfigured
	}
	updated, err := s.discord.Publish(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrWebhookNotConfigured) {
			s.failed(ChannelDiscord)
		}
		return store.Case{}, err
	}
	return updated, nil
}

func (s *Service) QueueCasePublish(c store.Case) {
	s.dispatch(ChannelDiscord, zap.Int64("case_id", c.ID), func(ctx context.Context) error {
		_, err := s.PublishCase(ctx, c)
		return err
	})
}

func (s *Service) QueueContact(c store.Contact) {
	s.dispatch(ChannelEmail, zap.Int64("contact_id", c.ID), func(ctx context.Context) error {
		if s.contacts == nil {
			return email.ErrNotConfigured
		}
		err := s.contacts.Notify(ctx, c)
		if err != nil && !errors.Is(err, email.ErrNotConfigured) {
			s.failed(ChannelEmail)
		}
		return err
	})
}

// Wait blocks until every queued notification has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) dispatch(channel string, subject zap.Field, fn func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := fn(ctx)
		switch {
		case err == nil:
			s.logger.Info("notification delivered", zap.String("channel", channel), subject)
		case errors.Is(err, email.ErrNotConfigured), errors.Is(err, ErrWebhookNotConfigured):
			s.logger.Info("notification skipped", zap.String("channel", channel), subject, zap.Error(err))
		default:
			s.logger.Error("notification failed", zap.String("channel", channel), subject, zap.Error(err))
		}
	}()
}

func (s *Service) failed(channel string) {
	if s.failures != nil {
		s.failures.NotifyFailed(channel)
	}
}

var _ Notifier = (*Service)(nil)
