package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"costlaw/api/internal/caselaw"
	"costlaw/api/internal/store"
)

func slugConflict(what string) *DomainError {
	return domainError(http.StatusConflict, "CONFLICT", "A "+what+" with this slug already exists", []FieldError{{Field: "slug", Message: "is already taken"}})
}

// writeErr maps the store errors of an update or delete on the named entity.
func writeErr(what string, err error) error {
	if errors.Is(err, store.ErrConflict) {
		return slugConflict(strings.ToLower(what))
	}
	return lookupErr(what, err)
}

// defaultSlug keeps an explicit slug, otherwise derives one from the title.
// The result is never empty.
func defaultSlug(prefix, slug, title string) string {
	if slug = strings.TrimSpace(slug); slug != "" {
		return slug
	}
	return caselaw.SlugOr(prefix, title)
}

// Services

type ServiceInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Slug        string `json:"slug"`
}

type ServiceUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Slug        *string `json:"slug"`
}

func (s *Service) ListServices(ctx context.Context) ([]store.Service, error) {
	return s.store.ListServices(ctx)
}

func (s *Service) GetServiceBySlug(ctx context.Context, slug string) (store.Service, error) {
	item, err := s.store.GetServiceBySlug(ctx, slug)
	if err != nil {
		return store.Service{}, lookupErr("Service", err)
	}
	return item, nil
}

func (s *Service) CreateService(ctx context.Context, input ServiceInput) (store.Service, error) {
	var v validator
	v.require("title", input.Title)
	v.require("description", input.Description)
	v.require("icon", input.Icon)
	if err := v.err("Invalid service data"); err != nil {
		return store.Service{}, err
	}
	created, err := s.store.CreateService(ctx, store.NewService{
		Title:       input.Title,
		Description: input.Description,
		Icon:        input.Icon,
		Slug:        defaultSlug("service", input.Slug, input.Title),
	})
	if err != nil {
		return store.Service{}, writeErr("Service", err)
	}
	s.search.IndexService(created)
	return created, nil
}

func (s *Service) UpdateService(ctx context.Context, id int64, input ServiceUpdate) (store.Service, error) {
	var v validator
	v.optional("title", input.Title)
	v.optional("slug", input.Slug)
	if err := v.err("Invalid service data"); err != nil {
		return store.Service{}, err
	}
	updated, err := s.store.UpdateService(ctx, id, store.ServicePatch{
		Title:       input.Title,
		Description: input.Description,
		Icon:        input.Icon,
		Slug:        input.Slug,
	})
	if err != nil {
		return store.Service{}, writeErr("Service", err)
	}
	s.search.IndexService(updated)
	return updated, nil
}

func (s *Service) DeleteService(ctx context.Context, id int64) error {
	if err := s.store.DeleteService(ctx, id); err != nil {
		return lookupErr("Service", err)
	}
	s.search.RemoveService(id)
	return nil
}

// News

type NewsInput struct {
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Author   string  `json:"author"`
	ImageURL *string `json:"imageUrl"`
	Slug     string  `json:"slug"`
}

type NewsUpdate struct {
	Title    *string `json:"title"`
	Summary  *string `json:"summary"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Date     *string `json:"date"`
	Author   *string `json:"author"`
	ImageURL *string `json:"imageUrl"`
	Slug     *string `json:"slug"`
}

func (s *Service) ListNews(ctx context.Context) ([]store.News, error) {
	return s.store.ListNews(ctx)
}

func (s *Service) GetNewsBySlug(ctx context.Context, slug string) (store.News, error) {
	item, err := s.store.GetNewsBySlug(ctx, slug)
	if err != nil {
		return store.News{}, lookupErr("News", err)
	}
	return item, nil
}

func (s *Service) CreateNews(ctx context.Context, input NewsInput) (store.News, error) {
	var v validator
	v.require("title", input.Title)
	v.require("summary", input.Summary)
	v.require("content", input.Content)
	v.require("category", input.Category)
	v.require("date", input.Date)
	v.require("author", input.Author)
	if err := v.err("Invalid news data"); err != nil {
		return store.News{}, err
	}
	created, err := s.store.CreateNews(ctx, store.NewNews{
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		Date:     input.Date,
		Author:   input.Author,
		ImageURL: input.ImageURL,
		Slug:     defaultSlug("news", input.Slug, input.Title),
	})
	if err != nil {
		return store.News{}, writeErr("News", err)
	}
	s.search.IndexNews(created)
	return created, nil
}

func (s *Service) UpdateNews(ctx context.Context, id int64, input NewsUpdate) (store.News, error) {
	var v validator
	v.optional("title", input.Title)
	v.optional("slug", input.Slug)
	if err := v.err("Invalid news data"); err != nil {
		return store.News{}, err
	}
	updated, err := s.store.UpdateNews(ctx, id, store.NewsPatch{
		Title:    input.Title,
		Summary:  input.Summary,
		Content:  input.Content,
		Category: input.Category,
		Date:     input.Date,
		Author:   input.Author,
		ImageURL: input.ImageURL,
		Slug:     input.Slug,
	})
	if err != nil {
		return store.News{}, writeErr("News", err)
	}
	s.search.IndexNews(updated)
	return updated, nil
}

func (s *Service) DeleteNews(ctx context.Context, id int64) error {
	if err := s.store.DeleteNews(ctx, id); err != nil {
		return lookupErr("News", err)
	}
	s.search.RemoveNews(id)
	return nil
}

// Team

type TeamMemberInput struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Bio      string  `json:"bio"`
	ImageURL *string `json:"imageUrl"`
	LinkedIn *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`
	Email    *string `json:"email"`
}

type TeamMemberUpdate struct {
	Name     *string `json:"name"`
	Position *string `json:"position"`
	Bio      *string `json:"bio"`
	ImageURL *string `json:"imageUrl"`
	LinkedIn *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`
	Email    *string `json:"email"`
}

func (s *Service) ListTeamMembers(ctx context.Context) ([]store.TeamMember, error) {
	return s.store.ListTeamMembers(ctx)
}

func (s *Service) GetTeamMember(ctx context.Context, id int64) (store.TeamMember, error) {
	member, err := s.store.GetTeamMember(ctx, id)
	if err != nil {
		return store.TeamMember{}, lookupErr("Team member", err)
	}
	return member, nil
}

func (s *Service) CreateTeamMember(ctx context.Context, input TeamMemberInput) (store.TeamMember, error) {
	var v validator
	v.require("name", input.Name)
	v.require("position", input.Position)
	v.require("bio", input.Bio)
	if err := v.err("Invalid team member data"); err != nil {
		return store.TeamMember{}, err
	}
	return s.store.CreateTeamMember(ctx, store.NewTeamMember{
		Name:     input.Name,
		Position: input.Position,
		Bio:      input.Bio,
		ImageURL: input.ImageURL,
		LinkedIn: input.LinkedIn,
		Twitter:  input.Twitter,
		Email:    input.Email,
	})
}

func (s *Service) UpdateTeamMember(ctx context.Context, id int64, input TeamMemberUpdate) (store.TeamMember, error) {
	var v validator
	v.optional("name", input.Name)
	if err := v.err("Invalid team member data"); err != nil {
		return store.TeamMember{}, err
	}
	updated, err := s.store.UpdateTeamMember(ctx, id, store.TeamMemberPatch{
		Name:     input.Name,
		Position: input.Position,
		Bio:      input.Bio,
		ImageURL: input.ImageURL,
		LinkedIn: input.LinkedIn,
		Twitter:  input.Twitter,
		Email:    input.Email,
	})
	if err != nil {
		return store.TeamMember{}, lookupErr("Team member", err)
	}
	return updated, nil
}

func (s *Service) DeleteTeamMember(ctx context.Context, id int64) error {
	return lookupErr("Team member", s.store.DeleteTeamMember(ctx, id))
}

// Contact form and subscriptions

func (s *Service) SubmitContact(ctx context.Context, input store.NewContact) (store.Contact, error) {
	var v validator
	v.require("firstName", input.FirstName)
	v.require("lastName", input.LastName)
	v.email("email", input.Email)
	v.require("message", input.Message)
	if err := v.err("Invalid contact data"); err != nil {
		return store.Contact{}, err
	}
	input.Email = strings.TrimSpace(input.Email)
	contact, err := s.store.CreateContact(ctx, input)
	if err != nil {
		return store.Contact{}, err
	}
	s.notifier.QueueContact(contact)
	return contact, nil
}

func (s *Service) ListContacts(ctx context.Context) ([]store.Contact, error) {
	return s.store.ListContacts(ctx)
}

func (s *Service) Subscribe(ctx context.Context, email string) (store.Subscription, error) {
	var v validator
	v.email("email", email)
	if err := v.err("Invalid subscription data"); err != nil {
		return store.Subscription{}, err
	}
	return s.store.CreateSubscription(ctx, store.NewSubscription{Email: strings.TrimSpace(email)})
}

func (s *Service) ListSubscriptions(ctx context.Context) ([]store.Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}

func (s *Service) DeleteSubscription(ctx context.Context, id int64) error {
	return lookupErr("Subscription", s.store.DeleteSubscription(ctx, id))
}

// Community

type CommunityUpdate struct {
	DiscordInviteURL  *string         `json:"discordInviteUrl"`
	DiscordServerID   *string         `json:"discordServerId"`
	EventName         *string         `json:"eventName"`
	EventDescription  *string         `json:"eventDescription"`
	EventDate         *string         `json:"eventDate"`
	DiscordWebhookURL *string         `json:"discordWebhookUrl"`
	Settings          json.RawMessage `json:"settings"`
}

func (s *Service) GetCommunity(ctx context.Context) (store.Community, error) {
	community, err := s.store.GetCommunity(ctx)
	if err != nil {
		return store.Community{}, lookupErr("Community settings", err)
	}
	return community, nil
}

func (s *Service) UpdateCommunity(ctx context.Context, input CommunityUpdate) (store.Community, error) {
	var v validator
	if input.Settings != nil {
		trimmed := strings.TrimSpace(string(input.Settings))
		v.check(trimmed == "null" || strings.HasPrefix(trimmed, "{"), "settings", "must be an object")
		if trimmed == "null" {
			input.Settings = nil
		}
	}
	if err := v.err("Invalid community data"); err != nil {
		return store.Community{}, err
	}
	return s.store.UpdateCommunity(ctx, store.CommunityPatch{
		DiscordInviteURL:  input.DiscordInviteURL,
		DiscordServerID:   input.DiscordServerID,
		EventName:         input.EventName,
		EventDescription:  input.EventDescription,
		EventDate:         input.EventDate,
		DiscordWebhookURL: input.DiscordWebhookURL,
		Settings:          input.Settings,
	})
}
