package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var _ Storage = (*SQLStore)(nil)

// SQLStore implements Storage with hand-written SQL for PostgreSQL and SQLite.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) q(query string) string {
	return s.dialect.rebind(query)
}

func (s *SQLStore) timestampArg() any {
	return s.dialect.timeArg(s.now().UTC())
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) writeErr(op string, err error) error {
	if s.dialect.uniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func readErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *SQLStore) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM `+table+` WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

const userColumns = `id, username, password, email, name, role`

func scanUser(row rowScanner) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.Name, &user.Role)
	return user, err
}

func (s *SQLStore) GetUser(ctx context.Context, id int64) (User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
	if err != nil {
		return User{}, readErr("get user", err)
	}
	return user, nil
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE username = $1`), username))
	if err != nil {
		return User{}, readErr("get user by username", err)
	}
	return user, nil
}

func (s *SQLStore) CreateUser(ctx context.Context, input NewUser) (User, error) {
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	user, err := scanUser(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO users (username, password, email, name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns), input.Username, input.Password, input.Email, input.Name, role))
	if err != nil {
		return User{}, s.writeErr("create user", err)
	}
	return user, nil
}

const caseColumns = `id, title, summary, content, category, date, author, tags, slug, published_to_discord, created_at`

func (s *SQLStore) scanCase(row rowScanner) (Case, error) {
	var c Case
	err := row.Scan(
		&c.ID, &c.Title, &c.Summary, &c.Content, &c.Category, &c.Date, &c.Author,
		s.dialect.tagsDest(&c.Tags), &c.Slug, &c.PublishedToDiscord, timestamp{dst: &c.CreatedAt},
	)
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, err
}

func (s *SQLStore) queryCases(ctx context.Context, db queryer, query string, args ...any) ([]Case, error) {
	rows, err := db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	cases := []Case{}
	for rows.Next() {
		c, err := s.scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

func (s *SQLStore) ListCases(ctx context.Context) ([]Case, error) {
	cases, err := s.queryCases(ctx, s.db, `SELECT `+caseColumns+` FROM cases`)
	if err != nil {
		return nil, err
	}
	SortCasesNewestFirst(cases)
	return cases, nil
}

func (s *SQLStore) GetCase(ctx context.Context, id int64) (Case, error) {
	c, err := s.scanCase(s.db.QueryRowContext(ctx, s.q(`SELECT `+caseColumns+` FROM cases WHERE id = $1`), id))
	if err != nil {
		return Case{}, readErr("get case", err)
	}
	return c, nil
}

func (s *SQLStore) GetCaseBySlug(ctx context.Context, slug string) (Case, error) {
	c, err := s.scanCase(s.db.QueryRowContext(ctx, s.q(`SELECT `+caseColumns+` FROM cases WHERE slug = $1`), slug))
	if err != nil {
		return Case{}, readErr("get case by slug", err)
	}
	return c, nil
}

func (s *SQLStore) SearchCases(ctx context.Context, query CaseQuery) ([]Case, error) {
	q := normalizedQuery(query)
	var (
		where []string
		args  []any
	)
	if q.Text != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(q.Text))+"%")
		p := fmt.Sprintf("$%d", len(args))
		var clauses []string
		for _, col := range []string{"title", "summary", "content", "author"} {
			clauses = append(clauses, s.dialect.lower(col)+` LIKE `+p+` ESCAPE '\'`)
		}
		clauses = append(clauses, s.dialect.tagMatch(p))
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}
	if q.Category != "" {
		args = append(args, q.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if q.Year != "" {
		args = append(args, "%"+escapeLike(q.Year)+"%")
		where = append(where, fmt.Sprintf(`date LIKE $%d ESCAPE '\'`, len(args)))
	}

	stmt := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, " AND ")
	}
	cases, err := s.queryCases(ctx, s.db, stmt, args...)
	if err != nil {
		return nil, err
	}
	SortCasesNewestFirst(cases)
	return cases, nil
}

func (s *SQLStore) insertCaseArgs(input NewCase) ([]any, error) {
	tags, err := s.dialect.tagsArg(input.Tags)
	if err != nil {
		return nil, err
	}
	return []any{
		input.Title, input.Summary, input.Content, input.Category, input.Date,
		input.Author, tags, input.Slug, false, s.timestampArg(),
	}, nil
}

const insertCase = `
	INSERT INTO cases (title, summary, content, category, date, author, tags, slug, published_to_discord, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *SQLStore) CreateCase(ctx context.Context, input NewCase) (Case, error) {
	args, err := s.insertCaseArgs(input)
	if err != nil {
		return Case{}, err
	}
	c, err := s.scanCase(s.db.QueryRowContext(ctx, s.q(insertCase+` RETURNING `+caseColumns), args...))
	if err != nil {
		return Case{}, s.writeErr("create case", err)
	}
	return c, nil
}

func (s *SQLStore) ImportCases(ctx context.Context, inputs []NewCase) (ImportResult, error) {
	result := ImportResult{Imported: []Case{}, Skipped: []string{}}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt := s.q(insertCase + ` ON CONFLICT (slug) DO NOTHING RETURNING ` + caseColumns)
		for _, input := range inputs {
			args, err := s.insertCaseArgs(input)
			if err != nil {
				return err
			}
			c, err := s.scanCase(tx.QueryRowContext(ctx, stmt, args...))
			if errors.Is(err, sql.ErrNoRows) {
				result.Skipped = append(result.Skipped, input.Title)
				continue
			}
			if err != nil {
				return s.writeErr("import case", err)
			}
			result.Imported = append(result.Imported, c)
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

func (s *SQLStore) UpdateCase(ctx context.Context, id int64, patch CasePatch) (Case, error) {
	var updated Case
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		c, err := s.scanCase(tx.QueryRowContext(ctx, s.q(`SELECT `+caseColumns+` FROM cases WHERE id = $1`+s.dialect.forUpdate), id))
		if err != nil {
			return readErr("load case", err)
		}
		patch.apply(&c)
		tags, err := s.dialect.tagsArg(c.Tags)
		if err != nil {
			return err
		}
		updated, err = s.scanCase(tx.QueryRowContext(ctx, s.q(`
			UPDATE cases
			SET title = $1, summary = $2, content = $3, category = $4, date = $5, author = $6,
				tags = $7, slug = $8, published_to_discord = (published_to_discord OR $9)
			WHERE id = $10
			RETURNING `+caseColumns),
			c.Title, c.Summary, c.Content, c.Category, c.Date, c.Author, tags, c.Slug, c.PublishedToDiscord, id))
		if err != nil {
			return s.writeErr("update case", err)
		}
		return nil
	})
	if err != nil {
		return Case{}, err
	}
	return updated, nil
}

func (s *SQLStore) DeleteCase(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "cases", id)
}

const serviceColumns = `id, title, description, icon, slug`

func scanService(row rowScanner) (Service, error) {
	var item Service
	err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Icon, &item.Slug)
	return item, err
}

func (s *SQLStore) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()
	out := []Service{}
	for rows.Next() {
		item, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetService(ctx context.Context, id int64) (Service, error) {
	item, err := scanService(s.db.QueryRowContext(ctx, s.q(`SELECT `+serviceColumns+` FROM services WHERE id = $1`), id))
	if err != nil {
		return Service{}, readErr("get service", err)
	}
	return item, nil
}

func (s *SQLStore) GetServiceBySlug(ctx context.Context, slug string) (Service, error) {
	item, err := scanService(s.db.QueryRowContext(ctx, s.q(`SELECT `+serviceColumns+` FROM services WHERE slug = $1`), slug))
	if err != nil {
		return Service{}, readErr("get service by slug", err)
	}
	return item, nil
}

func (s *SQLStore) CreateService(ctx context.Context, input NewService) (Service, error) {
	item, err := scanService(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO services (title, description, icon, slug)
		VALUES ($1, $2, $3, $4)
		RETURNING `+serviceColumns), input.Title, input.Description, input.Icon, input.Slug))
	if err != nil {
		return Service{}, s.writeErr("create service", err)
	}
	return item, nil
}

func (s *SQLStore) UpdateService(ctx context.Context, id int64, patch ServicePatch) (Service, error) {
	var updated Service
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		item, err := scanService(tx.QueryRowContext(ctx, s.q(`SELECT `+serviceColumns+` FROM services WHERE id = $1`+s.dialect.forUpdate), id))
		if err != nil {
			return readErr("load service", err)
		}
		patch.apply(&item)
		updated, err = scanService(tx.QueryRowContext(ctx, s.q(`
			UPDATE services SET title = $1, description = $2, icon = $3, slug = $4
			WHERE id = $5
			RETURNING `+serviceColumns), item.Title, item.Description, item.Icon, item.Slug, id))
		if err != nil {
			return s.writeErr("update service", err)
		}
		return nil
	})
	if err != nil {
		return Service{}, err
	}
	return updated, nil
}

func (s *SQLStore) DeleteService(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "services", id)
}

const newsColumns = `id, title, summary, content, category, date, author, image_url, slug`

func scanNews(row rowScanner) (News, error) {
	var (
		item     News
		imageURL sql.NullString
	)
	err := row.Scan(&item.ID, &item.Title, &item.Summary, &item.Content, &item.Category, &item.Date, &item.Author, &imageURL, &item.Slug)
	item.ImageURL = stringPtr(imageURL)
	return item, err
}

func (s *SQLStore) ListNews(ctx context.Context) ([]News, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+newsColumns+` FROM news ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer rows.Close()
	out := []News{}
	for rows.Next() {
		item, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("scan news: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetNews(ctx context.Context, id int64) (News, error) {
	item, err := scanNews(s.db.QueryRowContext(ctx, s.q(`SELECT `+newsColumns+` FROM news WHERE id = $1`), id))
	if err != nil {
		return News{}, readErr("get news", err)
	}
	return item, nil
}

func (s *SQLStore) GetNewsBySlug(ctx context.Context, slug string) (News, error) {
	item, err := scanNews(s.db.QueryRowContext(ctx, s.q(`SELECT `+newsColumns+` FROM news WHERE slug = $1`), slug))
	if err != nil {
		return News{}, readErr("get news by slug", err)
	}
	return item, nil
}

func (s *SQLStore) CreateNews(ctx context.Context, input NewNews) (News, error) {
	item, err := scanNews(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO news (title, summary, content, category, date, author, image_url, slug)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+newsColumns),
		input.Title, input.Summary, input.Content, input.Category, input.Date, input.Author, nullString(input.ImageURL), input.Slug))
	if err != nil {
		return News{}, s.writeErr("create news", err)
	}
	return item, nil
}

func (s *SQLStore) UpdateNews(ctx context.Context, id int64, patch NewsPatch) (News, error) {
	var updated News
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		item, err := scanNews(tx.QueryRowContext(ctx, s.q(`SELECT `+newsColumns+` FROM news WHERE id = $1`+s.dialect.forUpdate), id))
		if err != nil {
			return readErr("load news", err)
		}
		patch.apply(&item)
		updated, err = scanNews(tx.QueryRowContext(ctx, s.q(`
			UPDATE news
			SET title = $1, summary = $2, content = $3, category = $4, date = $5, author = $6, image_url = $7, slug = $8
			WHERE id = $9
			RETURNING `+newsColumns),
			item.Title, item.Summary, item.Content, item.Category, item.Date, item.Author, nullString(item.ImageURL), item.Slug, id))
		if err != nil {
			return s.writeErr("update news", err)
		}
		return nil
	})
	if err != nil {
		return News{}, err
	}
	return updated, nil
}

func (s *SQLStore) DeleteNews(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "news", id)
}

const contactColumns = `id, first_name, last_name, email, phone, service, message, created_at`

func scanContact(row rowScanner) (Contact, error) {
	var (
		item           Contact
		phone, service sql.NullString
	)
	err := row.Scan(&item.ID, &item.FirstName, &item.LastName, &item.Email, &phone, &service, &item.Message, timestamp{dst: &item.CreatedAt})
	item.Phone = stringPtr(phone)
	item.Service = stringPtr(service)
	return item, err
}

func (s *SQLStore) CreateContact(ctx context.Context, input NewContact) (Contact, error) {
	item, err := scanContact(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO contacts (first_name, last_name, email, phone, service, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+contactColumns),
		input.FirstName, input.LastName, input.Email, nullString(input.Phone), nullString(input.Service), input.Message, s.timestampArg()))
	if err != nil {
		return Contact{}, s.writeErr("create contact", err)
	}
	return item, nil
}

func (s *SQLStore) ListContacts(ctx context.Context) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	out := []Contact{}
	for rows.Next() {
		item, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

const communityColumns = `id, discord_invite_url, discord_server_id, event_name, event_description, event_date, discord_webhook_url, settings`

func scanCommunity(row rowScanner) (Community, error) {
	var (
		item                                      Community
		invite, server, name, desc, date, webhook sql.NullString
		settings                                  []byte
	)
	err := row.Scan(&item.ID, &invite, &server, &name, &desc, &date, &webhook, &settings)
	item.DiscordInviteURL = stringPtr(invite)
	item.DiscordServerID = stringPtr(server)
	item.EventName = stringPtr(name)
	item.EventDescription = stringPtr(desc)
	item.EventDate = stringPtr(date)
	item.DiscordWebhookURL = stringPtr(webhook)
	if len(settings) > 0 {
		item.Settings = json.RawMessage(append([]byte(nil), settings...))
	}
	return item, err
}

func (s *SQLStore) GetCommunity(ctx context.Context) (Community, error) {
	item, err := scanCommunity(s.db.QueryRowContext(ctx, `SELECT `+communityColumns+` FROM community WHERE id = 1`))
	if err != nil {
		return Community{}, readErr("get community", err)
	}
	return item, nil
}

func (s *SQLStore) UpdateCommunity(ctx context.Context, patch CommunityPatch) (Community, error) {
	var updated Community
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		item, err := scanCommunity(tx.QueryRowContext(ctx, `SELECT `+communityColumns+` FROM community WHERE id = 1`+s.dialect.forUpdate))
		if errors.Is(err, sql.ErrNoRows) {
			item = Community{ID: 1}
		} else if err != nil {
			return fmt.Errorf("load community: %w", err)
		}
		patch.apply(&item)
		var settings any
		if len(item.Settings) > 0 {
			settings = string(item.Settings)
		}
		updated, err = scanCommunity(tx.QueryRowContext(ctx, s.q(`
			INSERT INTO community (id, discord_invite_url, discord_server_id, event_name, event_description, event_date, discord_webhook_url, settings)
			VALUES (1, $1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				discord_invite_url = EXCLUDED.discord_invite_url,
				discord_server_id = EXCLUDED.discord_server_id,
				event_name = EXCLUDED.event_name,
				event_description = EXCLUDED.event_description,
				event_date = EXCLUDED.event_date,
				discord_webhook_url = EXCLUDED.discord_webhook_url,
				settings = EXCLUDED.settings
			RETURNING `+communityColumns),
			nullString(item.DiscordInviteURL), nullString(item.DiscordServerID), nullString(item.EventName),
			nullString(item.EventDescription), nullString(item.EventDate), nullString(item.DiscordWebhookURL), settings))
		if err != nil {
			return s.writeErr("upsert community", err)
		}
		return nil
	})
	if err != nil {
		return Community{}, err
	}
	return updated, nil
}

const subscriptionColumns = `id, email, created_at`

func scanSubscription(row rowScanner) (Subscription, error) {
	var item Subscription
	err := row.Scan(&item.ID, &item.Email, timestamp{dst: &item.CreatedAt})
	return item, err
}

func (s *SQLStore) CreateSubscription(ctx context.Context, input NewSubscription) (Subscription, error) {
	findExisting := func() (Subscription, error) {
		return scanSubscription(s.db.QueryRowContext(ctx, s.q(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE LOWER(email) = LOWER($1)`), input.Email))
	}
	existing, err := findExisting()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, fmt.Errorf("lookup subscription: %w", err)
	}

	item, err := scanSubscription(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO subscriptions (email, created_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+subscriptionColumns), input.Email, s.timestampArg()))
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with a concurrent subscribe for the same address.
		existing, err = findExisting()
		if err != nil {
			return Subscription{}, readErr("lookup subscription", err)
		}
		return existing, nil
	}
	if err != nil {
		return Subscription{}, s.writeErr("create subscription", err)
	}
	return item, nil
}

func (s *SQLStore) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()
	out := []Subscription{}
	for rows.Next() {
		item, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteSubscription(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "subscriptions", id)
}

const teamColumns = `id, name, position, bio, image_url, linkedin, twitter, email`

func scanTeamMember(row rowScanner) (TeamMember, error) {
	var (
		item                               TeamMember
		imageURL, linkedIn, twitter, email sql.NullString
	)
	err := row.Scan(&item.ID, &item.Name, &item.Position, &item.Bio, &imageURL, &linkedIn, &twitter, &email)
	item.ImageURL = stringPtr(imageURL)
	item.LinkedIn = stringPtr(linkedIn)
	item.Twitter = stringPtr(twitter)
	item.Email = stringPtr(email)
	return item, err
}

func (s *SQLStore) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM team_members ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()
	out := []TeamMember{}
	for rows.Next() {
		item, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetTeamMember(ctx context.Context, id int64) (TeamMember, error) {
	item, err := scanTeamMember(s.db.QueryRowContext(ctx, s.q(`SELECT `+teamColumns+` FROM team_members WHERE id = $1`), id))
	if err != nil {
		return TeamMember{}, readErr("get team member", err)
	}
	return item, nil
}

func (s *SQLStore) CreateTeamMember(ctx context.Context, input NewTeamMember) (TeamMember, error) {
	item, err := scanTeamMember(s.db.QueryRowContext(ctx, s.q(`
		INSERT INTO team_members (name, position, bio, image_url, linkedin, twitter, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+teamColumns),
		input.Name, input.Position, input.Bio, nullString(input.ImageURL), nullString(input.LinkedIn), nullString(input.Twitter), nullString(input.Email)))
	if err != nil {
		return TeamMember{}, s.writeErr("create team member", err)
	}
	return item, nil
}

func (s *SQLStore) UpdateTeamMember(ctx context.Context, id int64, patch TeamMemberPatch) (TeamMember, error) {
	var updated TeamMember
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		item, err := scanTeamMember(tx.QueryRowContext(ctx, s.q(`SELECT `+teamColumns+` FROM team_members WHERE id = $1`+s.dialect.forUpdate), id))
		if err != nil {
			return readErr("load team member", err)
		}
		patch.apply(&item)
		updated, err = scanTeamMember(tx.QueryRowContext(ctx, s.q(`
			UPDATE team_members
			SET name = $1, position = $2, bio = $3, image_url = $4, linkedin = $5, twitter = $6, email = $7
			WHERE id = $8
			RETURNING `+teamColumns),
			item.Name, item.Position, item.Bio, nullString(item.ImageURL), nullString(item.LinkedIn), nullString(item.Twitter), nullString(item.Email), id))
		if err != nil {
			return s.writeErr("update team member", err)
		}
		return nil
	})
	if err != nil {
		return TeamMember{}, err
	}
	return updated, nil
}

func (s *SQLStore) DeleteTeamMember(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "team_members", id)
}
