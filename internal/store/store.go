package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"costlaw/api/internal/casedate"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type UserStore interface {
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, user NewUser) (User, error)
}

type CaseStore interface {
	ListCases(ctx context.Context) ([]Case, error)
	GetCase(ctx context.Context, id int64) (Case, error)
	GetCaseBySlug(ctx context.Context, slug string) (Case, error)
	SearchCases(ctx context.Context, query CaseQuery) ([]Case, error)
	CreateCase(ctx context.Context, item NewCase) (Case, error)
	// ImportCases stores every record whose slug is not taken yet and
	// reports the titles of the rest as skipped.
	ImportCases(ctx context.Context, items []NewCase) (ImportResult, error)
	UpdateCase(ctx context.Context, id int64, patch CasePatch) (Case, error)
	DeleteCase(ctx context.Context, id int64) error
}

type ServiceStore interface {
	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id int64) (Service, error)
	GetServiceBySlug(ctx context.Context, slug string) (Service, error)
	CreateService(ctx context.Context, item NewService) (Service, error)
	UpdateService(ctx context.Context, id int64, patch ServicePatch) (Service, error)
	DeleteService(ctx context.Context, id int64) error
}

type NewsStore interface {
	ListNews(ctx context.Context) ([]News, error)
	GetNews(ctx context.Context, id int64) (News, error)
	GetNewsBySlug(ctx context.Context, slug string) (News, error)
	CreateNews(ctx context.Context, item NewNews) (News, error)
	UpdateNews(ctx context.Context, id int64, patch NewsPatch) (News, error)
	DeleteNews(ctx context.Context, id int64) error
}

type ContactStore interface {
	CreateContact(ctx context.Context, item NewContact) (Contact, error)
	ListContacts(ctx context.Context) ([]Contact, error)
}

type CommunityStore interface {
	GetCommunity(ctx context.Context) (Community, error)
	// UpdateCommunity creates the settings record on first use.
	UpdateCommunity(ctx context.Context, patch CommunityPatch) (Community, error)
}

type SubscriptionStore interface {
	// CreateSubscription returns the existing subscription when the email
	// is already subscribed.
	CreateSubscription(ctx context.Context, item NewSubscription) (Subscription, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
}

type TeamStore interface {
	ListTeamMembers(ctx context.Context) ([]TeamMember, error)
	GetTeamMember(ctx context.Context, id int64) (TeamMember, error)
	CreateTeamMember(ctx context.Context, item NewTeamMember) (TeamMember, error)
	UpdateTeamMember(ctx context.Context, id int64, patch TeamMemberPatch) (TeamMember, error)
	DeleteTeamMember(ctx context.Context, id int64) error
}

// Storage is implemented by MemoryStore and SQLStore.
type Storage interface {
	UserStore
	CaseStore
	ServiceStore
	NewsStore
	ContactStore
	CommunityStore
	SubscriptionStore
	TeamStore
	Ping(ctx context.Context) error
	Close() error
}

// SortCasesNewestFirst orders cases by parsed date, newest first. Cases with
// unparseable dates go last; ties fall back to the higher id.
func SortCasesNewestFirst(cases []Case) {
	type keyed struct {
		unix int64
		ok   bool
	}
	keys := make(map[int64]keyed, len(cases))
	for _, c := range cases {
		parsed, ok := casedate.Parse(c.Date)
		keys[c.ID] = keyed{unix: parsed.Unix(), ok: ok}
	}
	sort.SliceStable(cases, func(i, j int) bool {
		a, b := keys[cases[i].ID], keys[cases[j].ID]
		if a.ok != b.ok {
			return a.ok
		}
		if a.unix != b.unix {
			return a.unix > b.unix
		}
		return cases[i].ID > cases[j].ID
	})
}

func isAllSentinel(value, sentinel string) bool {
	value = strings.TrimSpace(value)
	return value == "" || value == sentinel || strings.EqualFold(value, "all")
}

// normalizedQuery strips the sentinel values the site's filter dropdowns send.
func normalizedQuery(q CaseQuery) CaseQuery {
	out := CaseQuery{Text: strings.TrimSpace(q.Text)}
	if !isAllSentinel(q.Category, "All Categories") {
		out.Category = strings.TrimSpace(q.Category)
	}
	if !isAllSentinel(q.Year, "All Years") {
		out.Year = strings.TrimSpace(q.Year)
	}
	return out
}

func matchesCase(c Case, q CaseQuery) bool {
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		found := strings.Contains(strings.ToLower(c.Title), needle) ||
			strings.Contains(strings.ToLower(c.Summary), needle) ||
			strings.Contains(strings.ToLower(c.Content), needle) ||
			strings.Contains(strings.ToLower(c.Author), needle)
		for _, tag := range c.Tags {
			if found {
				break
			}
			found = strings.Contains(strings.ToLower(tag), needle)
		}
		if !found {
			return false
		}
	}
	if q.Category != "" && c.Category != q.Category {
		return false
	}
	if q.Year != "" && !strings.Contains(c.Date, q.Year) {
		return false
	}
	return true
}

func cloneCase(c Case) Case {
	c.Tags = append([]string(nil), c.Tags...)
	return c
}
