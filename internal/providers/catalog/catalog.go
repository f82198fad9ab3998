// Package catalog serves the read-only tutorials, projects and blog posts
// that surround the playground.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	ErrTutorialNotFound = errors.New("tutorial not found")
	ErrSectionNotFound  = errors.New("section not found")
	ErrPostNotFound     = errors.New("post not found")
)

// DefaultPostImage is the cover shown for posts without an image.
const DefaultPostImage = "/blog/default-cover.svg"

//go:embed catalog.toml
var seed []byte

// Section is one chapter of a tutorial. Content is markdown.
type Section struct {
	Title       string `toml:"title" json:"title"`
	Description string `toml:"description" json:"description,omitempty"`
	Duration    string `toml:"duration" json:"duration,omitempty"`
	Content     string `toml:"content" json:"content,omitempty"`
}

// Tutorial is a course entry.
type Tutorial struct {
	ID          int       `toml:"id" json:"id"`
	Slug        string    `toml:"slug" json:"slug"`
	Title       string    `toml:"title" json:"title"`
	Description string    `toml:"description" json:"description"`
	Category    string    `toml:"category" json:"category"`
	Difficulty  string    `toml:"difficulty" json:"difficulty"`
	Duration    string    `toml:"duration" json:"duration"`
	Rating      float64   `toml:"rating" json:"rating"`
	Students    int       `toml:"students" json:"students"`
	Tags        []string  `toml:"tags" json:"tags"`
	Featured    bool      `toml:"featured" json:"featured"`
	Chapters    int       `toml:"chapters" json:"chapters"`
	Author      string    `toml:"author" json:"author"`
	Date        string    `toml:"date" json:"date"`
	Sections    []Section `toml:"sections" json:"sections,omitempty"`
}

// Project is a showcase entry.
type Project struct {
	ID          int      `toml:"id" json:"id"`
	Title       string   `toml:"title" json:"title"`
	Description string   `toml:"description" json:"description"`
	Tags        []string `toml:"tags" json:"tags"`
	Link        string   `toml:"link" json:"link"`
	Difficulty  string   `toml:"difficulty" json:"difficulty"`
	Duration    string   `toml:"duration" json:"duration"`
	GithubURL   string   `toml:"github_url" json:"github_url,omitempty"`
	CreatedAt   string   `toml:"created_at" json:"created_at"`
}

// Author credits a post.
type Author struct {
	Name   string `toml:"name" json:"name"`
	Title  string `toml:"title" json:"title"`
	Avatar string `toml:"avatar" json:"avatar,omitempty"`
}

// Series places a post in an ordered run of posts.
type Series struct {
	Name  string `toml:"name" json:"name"`
	Order int    `toml:"order" json:"order"`
}

// Post is a blog article. Content is markdown.
type Post struct {
	Slug        string   `toml:"slug" json:"slug"`
	Title       string   `toml:"title" json:"title"`
	Description string   `toml:"description" json:"description"`
	Content     string   `toml:"content" json:"content,omitempty"`
	Date        string   `toml:"date" json:"date"`
	UpdatedAt   string   `toml:"updated_at" json:"updated_at,omitempty"`
	Author      Author   `toml:"author" json:"author"`
	Category    string   `toml:"category" json:"category"`
	Tags        []string `toml:"tags" json:"tags"`
	Image       string   `toml:"image" json:"image"`
	Series      *Series  `toml:"series" json:"series,omitempty"`
}

// Catalog holds tutorials, projects and posts in seed order.
type Catalog struct {
	Tutorials []Tutorial `toml:"tutorials"`
	Projects  []Project  `toml:"projects"`
	Posts     []Post     `toml:"posts"`

	markdown goldmark.Markdown
}

// Load parses a TOML catalog.
func Load(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Tutorials))
	for _, t := range c.Tutorials {
		if t.Slug == "" {
			return nil, fmt.Errorf("tutorial %d has no slug", t.ID)
		}
		if seen[t.Slug] {
			return nil, fmt.Errorf("duplicate tutorial slug %q", t.Slug)
		}
		seen[t.Slug] = true
	}

	posts := make(map[string]bool, len(c.Posts))
	for i, p := range c.Posts {
		if p.Slug == "" {
			return nil, fmt.Errorf("post %q has no slug", p.Title)
		}
		if posts[p.Slug] {
			return nil, fmt.Errorf("duplicate post slug %q", p.Slug)
		}
		posts[p.Slug] = true
		if p.Image == "" {
			c.Posts[i].Image = DefaultPostImage
		}
	}

	c.markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &c, nil
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Load(seed)
}

// TutorialQuery filters tutorials. Empty fields match everything.
type TutorialQuery struct {
	Category   string
	Difficulty string
	Tag        string
	Search     string
}

// FindTutorials returns tutorials matching q in seed order.
func (c *Catalog) FindTutorials(q TutorialQuery) []Tutorial {
	out := make([]Tutorial, 0, len(c.Tutorials))
	for _, t := range c.Tutorials {
		if q.Category != "" && !strings.EqualFold(t.Category, q.Category) {
			continue
		}
		if q.Difficulty != "" && !strings.EqualFold(t.Difficulty, q.Difficulty) {
			continue
		}
		if q.Tag != "" && !hasTag(t.Tags, q.Tag) {
			continue
		}
		if !matches(q.Search, t.Title, t.Description, t.Tags) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Tutorial returns the tutorial with slug.
func (c *Catalog) Tutorial(slug string) (Tutorial, error) {
	for _, t := range c.Tutorials {
		if t.Slug == slug {
			return t, nil
		}
	}
	return Tutorial{}, fmt.Errorf("%w: %s", ErrTutorialNotFound, slug)
}

// RenderSection converts a section's markdown to HTML. Raw HTML in the
// source is not passed through.
func (c *Catalog) RenderSection(slug string, index int) (string, error) {
	t, err := c.Tutorial(slug)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(t.Sections) {
		return "", fmt.Errorf("%w: %s #%d", ErrSectionNotFound, slug, index)
	}

	return c.render(t.Sections[index].Content)
}

func (c *Catalog) render(content string) (string, error) {
	var buf bytes.Buffer
	if err := c.markdown.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// PostQuery filters posts. Empty fields match everything.
type PostQuery struct {
	Category string
	Tag      string
	Search   string
}

// FindPosts returns posts matching q, newest first.
func (c *Catalog) FindPosts(q PostQuery) []Post {
	out := make([]Post, 0, len(c.Posts))
	for _, p := range c.Posts {
		if q.Category != "" && !strings.EqualFold(p.Category, q.Category) {
			continue
		}
		if q.Tag != "" && !hasTag(p.Tags, q.Tag) {
			continue
		}
		if !matches(q.Search, p.Title, p.Description, p.Tags) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Post returns the post with slug.
func (c *Catalog) Post(slug string) (Post, error) {
	for _, p := range c.Posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Post{}, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
}

// RenderPost converts a post's markdown to HTML.
func (c *Catalog) RenderPost(slug string) (string, error) {
	p, err := c.Post(slug)
	if err != nil {
		return "", err
	}
	return c.render(p.Content)
}

// ProjectQuery filters and orders projects.
type ProjectQuery struct {
	Tags         []string // any tag matches
	Difficulties []string // any difficulty matches
	Search       string
	Sort         string // newest (default), oldest, az, difficulty_beginner, difficulty_advanced
}

var difficultyRank = map[string]int{"beginner": 0, "intermediate": 1, "advanced": 2}

// FindProjects returns projects matching q in the requested order.
func (c *Catalog) FindProjects(q ProjectQuery) []Project {
	out := make([]Project, 0, len(c.Projects))
	for _, p := range c.Projects {
		if len(q.Tags) > 0 && !anyTag(p.Tags, q.Tags) {
			continue
		}
		if len(q.Difficulties) > 0 && !containsFold(q.Difficulties, p.Difficulty) {
			continue
		}
		if !matches(q.Search, p.Title, p.Description, p.Tags) {
			continue
		}
		out = append(out, p)
	}

	rank := func(p Project) int { return difficultyRank[strings.ToLower(p.Difficulty)] }
	var less func(a, b Project) bool
	switch q.Sort {
	case "oldest":
		less = func(a, b Project) bool { return a.CreatedAt < b.CreatedAt }
	case "az":
		less = func(a, b Project) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "difficulty_beginner":
		less = func(a, b Project) bool { return rank(a) < rank(b) }
	case "difficulty_advanced":
		less = func(a, b Project) bool { return rank(a) > rank(b) }
	default:
		less = func(a, b Project) bool { return a.CreatedAt > b.CreatedAt }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func matches(search, title, description string, tags []string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	if strings.Contains(strings.ToLower(title), s) || strings.Contains(strings.ToLower(description), s) {
		return true
	}
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), s) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, tag string) bool {
	return containsFold(tags, tag)
}

func anyTag(tags, wanted []string) bool {
	for _, w := range wanted {
		if containsFold(tags, w) {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
