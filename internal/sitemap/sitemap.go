// Package sitemap renders the public sitemap from the current store
// contents.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"costlaw/api/internal/casedate"
	"costlaw/api/internal/store"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type Source interface {
	ListCases(ctx context.Context) ([]store.Case, error)
	ListServices(ctx context.Context) ([]store.Service, error)
	ListNews(ctx context.Context) ([]store.News, error)
	ListTeamMembers(ctx context.Context) ([]store.TeamMember, error)
}

type URL struct {
	Loc        string  `xml:"loc"`
	LastMod    string  `xml:"lastmod,omitempty"`
	ChangeFreq string  `xml:"changefreq,omitempty"`
	Priority   float64 `xml:"priority"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type page struct {
	path       string
	changeFreq string
	priority   float64
}

var staticPages = []page{
	{"/", "weekly", 1.0},
	{"/cases", "daily", 0.9},
	{"/services", "monthly", 0.8},
	{"/community", "weekly", 0.7},
	{"/contact", "monthly", 0.6},
	{"/team", "monthly", 0.7},
}

// Build collects every public page under hostname.
func Build(ctx context.Context, src Source, hostname string) (URLSet, error) {
	cases, err := src.ListCases(ctx)
	if err != nil {
		return URLSet{}, fmt.Errorf("list cases: %w", err)
	}
	services, err := src.ListServices(ctx)
	if err != nil {
		return URLSet{}, fmt.Errorf("list services: %w", err)
	}
	news, err := src.ListNews(ctx)
	if err != nil {
		return URLSet{}, fmt.Errorf("list news: %w", err)
	}
	team, err := src.ListTeamMembers(ctx)
	if err != nil {
		return URLSet{}, fmt.Errorf("list team: %w", err)
	}

	base := strings.TrimRight(hostname, "/")
	set := URLSet{Xmlns: xmlns}
	add := func(path, changeFreq string, priority float64, lastMod string) {
		set.URLs = append(set.URLs, URL{Loc: base + path, LastMod: lastMod, ChangeFreq: changeFreq, Priority: priority})
	}

	for _, p := range staticPages {
		add(p.path, p.changeFreq, p.priority, "")
	}
	for _, c := range cases {
		add("/cases/"+c.Slug, "monthly", 0.8, lastMod(c.Date))
	}
	for _, s := range services {
		add("/services/"+s.Slug, "monthly", 0.7, "")
	}
	for _, n := range news {
		add("/news/"+n.Slug, "monthly", 0.6, lastMod(n.Date))
	}
	for _, m := range team {
		add("/team/"+strconv.FormatInt(m.ID, 10), "monthly", 0.6, "")
	}
	return set, nil
}

// Render encodes the set with the XML declaration.
func Render(set URLSet) ([]byte, error) {
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func lastMod(date string) string {
	t, ok := casedate.Parse(date)
	if !ok {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
