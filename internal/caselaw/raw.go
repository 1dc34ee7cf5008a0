package caselaw

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotCaseList = errors.New("expected an array of case objects")

// Optional marks a field that external exports may omit or send in a shape
// the importer does not understand.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Set: true}
}

// RawCase is a case record as it appears in external JSON exports. Strings
// that are absent decode as "". The optional variants are only Set when the
// input had the expected shape.
type RawCase struct {
	// ExternalID is the exporter's identifier (a Mongo-style _id.$oid or a
	// string id). It is informational only; the store assigns ids.
	ExternalID   string
	Title        string
	Summary      string
	Content      string
	Category     string
	Date         string
	Author       string
	Slug         Optional[string]
	Link         Optional[string]
	Tags         Optional[[]string]
	Participants Optional[[]string]

	titleInvalid bool
	// malformed marks a list element that was not an object at all.
	malformed bool
}

func (r *RawCase) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return errors.New("case record: expected an object")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("case record: %w", err)
	}
	if fields == nil {
		return errors.New("case record: expected an object")
	}

	var out RawCase
	if raw, ok := fields["title"]; ok && !isNull(raw) {
		title, isString := decodeString(raw)
		out.Title = title
		out.titleInvalid = !isString
	}
	out.Summary = stringField(fields, "summary")
	out.Content = stringField(fields, "content")
	out.Category = stringField(fields, "category")
	out.Author = stringField(fields, "author")
	if raw, ok := fields["date"]; ok && !isNull(raw) {
		if date, isString := decodeString(raw); isString {
			out.Date = date
		} else {
			// Keep the literal so it is reported as unparseable.
			out.Date = string(bytes.TrimSpace(raw))
		}
	}
	if slug := stringField(fields, "slug"); slug != "" {
		out.Slug = Some(slug)
	}
	if link := stringField(fields, "link"); link != "" {
		out.Link = Some(link)
	}
	if tags, ok := stringArray(fields["tags"]); ok {
		out.Tags = Some(tags)
	}
	if participants, ok := looseArray(fields["participants"]); ok {
		out.Participants = Some(participants)
	}
	out.ExternalID = externalID(fields)

	*r = out
	return nil
}

// ParseRawCases accepts either a bare JSON array of cases or an object with
// a "cases" array.
func ParseRawCases(data []byte) ([]RawCase, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrNotCaseList
	}
	if trimmed[0] == '{' {
		var wrapper struct {
			Cases json.RawMessage `json:"cases"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode cases: %w", err)
		}
		trimmed = bytes.TrimSpace(wrapper.Cases)
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotCaseList
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	// Elements decode one by one so a bad element is rejected on its own
	// instead of failing the list.
	cases := make([]RawCase, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			cases[i] = RawCase{malformed: true}
			continue
		}
		if err := json.Unmarshal(item, &cases[i]); err != nil {
			cases[i] = RawCase{malformed: true}
		}
	}
	return cases, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage) (string, bool) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	value, _ := decodeString(raw)
	return value
}

func stringArray(raw json.RawMessage) ([]string, bool) {
	if raw == nil {
		return nil, false
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil || values == nil {
		return nil, false
	}
	return values, true
}

// looseArray accepts any JSON array, rendering non-string elements as their
// JSON text.
func looseArray(raw json.RawMessage) ([]string, bool) {
	if raw == nil {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if value, ok := decodeString(item); ok {
			out = append(out, value)
			continue
		}
		out = append(out, string(bytes.TrimSpace(item)))
	}
	return out, true
}

func externalID(fields map[string]json.RawMessage) string {
	if raw, ok := fields["_id"]; ok {
		var mongo struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(raw, &mongo); err == nil && mongo.OID != "" {
			return mongo.OID
		}
	}
	return stringField(fields, "id")
}
