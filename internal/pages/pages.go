// Package pages serves the static marketing content of the site.
package pages

import (
	_ "embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// Item is one entry of a section: a feature card, a stat or a link.
type Item struct {
	Icon        string `yaml:"icon" json:"icon,omitempty"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description,omitempty"`
	Href        string `yaml:"href" json:"href,omitempty"`
}

// Section groups items under a heading.
type Section struct {
	Heading string `yaml:"heading" json:"heading"`
	Body    string `yaml:"body" json:"body,omitempty"`
	Items   []Item `yaml:"items" json:"items,omitempty"`
}

// Action is a call-to-action button. Signed-in visitors see the
// authenticated variant when one is set.
type Action struct {
	Label              string `yaml:"label" json:"label"`
	Href               string `yaml:"href" json:"href"`
	AuthenticatedLabel string `yaml:"authenticated_label" json:"-"`
	AuthenticatedHref  string `yaml:"authenticated_href" json:"-"`
}

// Page is the content of one marketing page.
type Page struct {
	Slug     string    `yaml:"slug" json:"slug"`
	Title    string    `yaml:"title" json:"title"`
	Subtitle string    `yaml:"subtitle" json:"subtitle,omitempty"`
	Actions  []Action  `yaml:"actions" json:"actions,omitempty"`
	Sections []Section `yaml:"sections" json:"sections"`
	Footnote string    `yaml:"footnote" json:"footnote,omitempty"`
}

// Catalog holds every page by slug.
type Catalog struct {
	Brand string `yaml:"brand"`
	Pages []Page `yaml:"pages"`

	bySlug map[string]int
}

// Load parses a catalog from YAML.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse pages: %w", err)
	}
	c.bySlug = make(map[string]int, len(c.Pages))
	for i, p := range c.Pages {
		if p.Slug == "" {
			return nil, fmt.Errorf("parse pages: page %d has no slug", i)
		}
		if _, dup := c.bySlug[p.Slug]; dup {
			return nil, fmt.Errorf("parse pages: duplicate slug %q", p.Slug)
		}
		c.bySlug[p.Slug] = i
	}
	return &c, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(strings.NewReader(string(defaultContent)))
}

// Get returns the page for slug as seen by a visitor. The returned page is a
// copy with actions resolved for the visitor and placeholders filled in.
func (c *Catalog) Get(slug string, authenticated bool, now time.Time) (*Page, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return nil, false
	}
	p := c.Pages[i]
	p.Actions = make([]Action, len(c.Pages[i].Actions))
	for j, a := range c.Pages[i].Actions {
		if authenticated && a.AuthenticatedLabel != "" {
			a.Label = a.AuthenticatedLabel
		}
		if authenticated && a.AuthenticatedHref != "" {
			a.Href = a.AuthenticatedHref
		}
		p.Actions[j] = a
	}
	p.Footnote = strings.ReplaceAll(p.Footnote, "{{year}}", strconv.Itoa(now.Year()))
	return &p, true
}

// Slugs lists the page slugs in file order.
func (c *Catalog) Slugs() []string {
	out := make([]string, len(c.Pages))
	for i, p := range c.Pages {
		out[i] = p.Slug
	}
	return out
}
