package store

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type NewUser struct {
	Username string
	// Password holds the bcrypt hash, never the plaintext.
	Password string
	Email    string
	Name     string
	Role     string
}

type Case struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	Summary            string    `json:"summary"`
	Content            string    `json:"content"`
	Category           string    `json:"category"`
	Date               string    `json:"date"`
	Author             string    `json:"author"`
	Tags               []string  `json:"tags"`
	Slug               string    `json:"slug"`
	PublishedToDiscord bool      `json:"publishedToDiscord"`
	CreatedAt          time.Time `json:"createdAt"`
}

// NewCase is a canonical case ready to be stored. Cases always start
// unpublished; see CasePatch.PublishedToDiscord.
type NewCase struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Date     string   `json:"date"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
	Slug     string   `json:"slug"`
}

type CasePatch struct {
	Title    *string
	Summary  *string
	Content  *string
	Category *string
	Date     *string
	Author   *string
	Tags     *[]string
	Slug     *string
	// PublishedToDiscord can only raise the flag. A false value leaves a
	// published case published.
	PublishedToDiscord *bool
}

func (p CasePatch) apply(c *Case) {
	setString(&c.Title, p.Title)
	setString(&c.Summary, p.Summary)
	setString(&c.Content, p.Content)
	setString(&c.Category, p.Category)
	setString(&c.Date, p.Date)
	setString(&c.Author, p.Author)
	setString(&c.Slug, p.Slug)
	if p.Tags != nil {
		c.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.PublishedToDiscord != nil && *p.PublishedToDiscord {
		c.PublishedToDiscord = true
	}
}

// CaseQuery filters SearchCases. Empty fields and the "all" sentinels match
// everything.
type CaseQuery struct {
	Text     string
	Category string
	Year     string
}

type ImportResult struct {
	Imported []Case   `json:"imported"`
	Skipped  []string `json:"skipped"`
}

type Service struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Slug        string `json:"slug"`
}

type NewService struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Slug        string `json:"slug"`
}

type ServicePatch struct {
	Title       *string
	Description *string
	Icon        *string
	Slug        *string
}

func (p ServicePatch) apply(s *Service) {
	setString(&s.Title, p.Title)
	setString(&s.Description, p.Description)
	setString(&s.Icon, p.Icon)
	setString(&s.Slug, p.Slug)
}

type News struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Author   string  `json:"author"`
	ImageURL *string `json:"imageUrl"`
	Slug     string  `json:"slug"`
}

type NewNews struct {
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Author   string  `json:"author"`
	ImageURL *string `json:"imageUrl"`
	Slug     string  `json:"slug"`
}

type NewsPatch struct {
	Title    *string
	Summary  *string
	Content  *string
	Category *string
	Date     *string
	Author   *string
	ImageURL *string
	Slug     *string
}

func (p NewsPatch) apply(n *News) {
	setString(&n.Title, p.Title)
	setString(&n.Summary, p.Summary)
	setString(&n.Content, p.Content)
	setString(&n.Category, p.Category)
	setString(&n.Date, p.Date)
	setString(&n.Author, p.Author)
	setString(&n.Slug, p.Slug)
	setOptional(&n.ImageURL, p.ImageURL)
}

type Contact struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Service   *string   `json:"service"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewContact struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Service   *string `json:"service"`
	Message   string  `json:"message"`
}

// Community is the singleton settings record for the Discord community page.
type Community struct {
	ID                int64           `json:"id"`
	DiscordInviteURL  *string         `json:"discordInviteUrl"`
	DiscordServerID   *string         `json:"discordServerId"`
	EventName         *string         `json:"eventName"`
	EventDescription  *string         `json:"eventDescription"`
	EventDate         *string         `json:"eventDate"`
	DiscordWebhookURL *string         `json:"discordWebhookUrl"`
	Settings          json.RawMessage `json:"settings"`
}

type CommunityPatch struct {
	DiscordInviteURL  *string
	DiscordServerID   *string
	EventName         *string
	EventDescription  *string
	EventDate         *string
	DiscordWebhookURL *string
	Settings          json.RawMessage
}

func (p CommunityPatch) apply(c *Community) {
	setOptional(&c.DiscordInviteURL, p.DiscordInviteURL)
	setOptional(&c.DiscordServerID, p.DiscordServerID)
	setOptional(&c.EventName, p.EventName)
	setOptional(&c.EventDescription, p.EventDescription)
	setOptional(&c.EventDate, p.EventDate)
	setOptional(&c.DiscordWebhookURL, p.DiscordWebhookURL)
	if p.Settings != nil {
		c.Settings = append(json.RawMessage(nil), p.Settings...)
	}
}

type Subscription struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewSubscription struct {
	Email string `json:"email"`
}

type TeamMember struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Bio      string  `json:"bio"`
	ImageURL *string `json:"imageUrl"`
	LinkedIn *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`
	Email    *string `json:"email"`
}

type NewTeamMember struct {
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Bio      string  `json:"bio"`
	ImageURL *string `json:"imageUrl"`
	LinkedIn *string `json:"linkedin"`
	Twitter  *string `json:"twitter"`
	Email    *string `json:"email"`
}

type TeamMemberPatch struct {
	Name     *string
	Position *string
	Bio      *string
	ImageURL *string
	LinkedIn *string
	Twitter  *string
	Email    *string
}

func (p TeamMemberPatch) apply(m *TeamMember) {
	setString(&m.Name, p.Name)
	setString(&m.Position, p.Position)
	setString(&m.Bio, p.Bio)
	setOptional(&m.ImageURL, p.ImageURL)
	setOptional(&m.LinkedIn, p.LinkedIn)
	setOptional(&m.Twitter, p.Twitter)
	setOptional(&m.Email, p.Email)
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

// setOptional treats an empty string as a request to clear the field.
func setOptional(dst **string, value *string) {
	if value != nil {
		*dst = nullable(value)
	}
}

// nullable turns an empty optional string into nil so both backends store
// absent values the same way.
func nullable(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}
