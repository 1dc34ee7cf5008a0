package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect hides the differences between PostgreSQL and SQLite. Queries are
// written with $N placeholders and rebound per dialect.
type Dialect struct {
	Name       string
	driverName string
	// tagMatch filters cases whose tags contain the LIKE pattern bound to
	// the given placeholder.
	tagMatch        func(placeholder string) string
	lower           func(expr string) string
	forUpdate       string
	rebind          func(query string) string
	tagsArg         func(tags []string) (any, error)
	tagsDest        func(tags *[]string) any
	timeArg         func(t time.Time) any
	uniqueViolation func(err error) bool
}

var Postgres = Dialect{
	Name:       DriverPostgres,
	driverName: "pgx",
	tagMatch: func(p string) string {
		return `EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE LOWER(tag) LIKE ` + p + ` ESCAPE '\')`
	},
	lower:     func(expr string) string { return "LOWER(" + expr + ")" },
	forUpdate: " FOR UPDATE",
	rebind:    func(query string) string { return query },
	tagsArg: func(tags []string) (any, error) {
		if tags == nil {
			tags = []string{}
		}
		return tags, nil
	},
	tagsDest: func(tags *[]string) any { return pgtype.NewMap().SQLScanner(tags) },
	timeArg:  func(t time.Time) any { return t },
	uniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// sqliteLower is registered on every SQLite connection. The built-in LOWER
// folds ASCII only.
const sqliteLower = "unicode_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(sqliteLower, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case nil:
			return nil, nil
		case string:
			return strings.ToLower(v), nil
		case []byte:
			return strings.ToLower(string(v)), nil
		default:
			return v, nil
		}
	})
}

var SQLite = Dialect{
	Name:       DriverSQLite,
	driverName: "sqlite",
	tagMatch: func(p string) string {
		return `EXISTS (SELECT 1 FROM json_each(cases.tags) WHERE ` + sqliteLower + `(json_each.value) LIKE ` + p + ` ESCAPE '\')`
	},
	lower: func(expr string) string { return sqliteLower + "(" + expr + ")" },
	rebind: func(query string) string {
		return placeholderPattern.ReplaceAllString(query, "?$1")
	},
	tagsArg: func(tags []string) (any, error) {
		if tags == nil {
			tags = []string{}
		}
		raw, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		return string(raw), nil
	},
	tagsDest: func(tags *[]string) any { return jsonTags{dst: tags} },
	timeArg:  func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
	uniqueViolation: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverPostgres:
		return Postgres, nil
	case DriverSQLite:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

type jsonTags struct {
	dst *[]string
}

func (j jsonTags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j.dst = []string{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	*j.dst = tags
	return nil
}

// timestamp scans TIMESTAMPTZ values from pgx and the RFC 3339 text written
// to SQLite.
type timestamp struct {
	dst *time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func (ts timestamp) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case time.Time:
		*ts.dst = v.UTC()
		return nil
	case string:
		text = v
	case []byte:
		text = string(v)
	case nil:
		*ts.dst = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			*ts.dst = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognised value %q", text)
}

func nullString(value *string) sql.NullString {
	if v := nullable(value); v != nil {
		return sql.NullString{String: *v, Valid: true}
	}
	return sql.NullString{}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
