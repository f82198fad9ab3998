package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles[T any](items []T, title func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, title(it))
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Len(t, c.Tutorials, 6)
	assert.Len(t, c.Projects, 6)
	assert.Len(t, c.Posts, 3)
}

func TestFindTutorials(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	slug := func(t Tutorial) string { return t.Slug }

	tests := []struct {
		name  string
		query TutorialQuery
		want  []string
	}{
		{"all", TutorialQuery{}, titles(c.Tutorials, slug)},
		{"category", TutorialQuery{Category: "DevOps"}, []string{"devops-with-docker-and-kubernetes"}},
		{"difficulty ignores case", TutorialQuery{Difficulty: "Beginner"}, []string{"python-for-data-science", "python-automation-scripts"}},
		{"search hits tags", TutorialQuery{Search: "pandas"}, []string{"python-for-data-science"}},
		{"search hits title", TutorialQuery{Search: "FLUTTER"}, []string{"flutter-mobile-app-development"}},
		{"tag", TutorialQuery{Tag: "aws"}, []string{"devops-with-docker-and-kubernetes"}},
		{"combined", TutorialQuery{Category: "Python", Search: "automat"}, []string{"python-automation-scripts"}},
		{"no match", TutorialQuery{Search: "cobol"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(c.FindTutorials(tt.query), slug))
		})
	}
}

func TestTutorialAndSections(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tut, err := c.Tutorial("modern-react-development-with-nextjs")
	require.NoError(t, err)
	assert.Len(t, tut.Sections, 3)

	_, err = c.Tutorial("missing")
	assert.ErrorIs(t, err, ErrTutorialNotFound)

	html, err := c.RenderSection(tut.Slug, 2)
	require.NoError(t, err)
	assert.Contains(t, html, `<h1 id="building-your-first-`)
	assert.Contains(t, html, "<li>Creating pages and routes</li>")

	_, err = c.RenderSection(tut.Slug, 3)
	assert.ErrorIs(t, err, ErrSectionNotFound)
}

func TestRenderSectionEscapesHTML(t *testing.T) {
	c, err := Load([]byte(`
[[tutorials]]
slug = "x"
  [[tutorials.sections]]
  title = "s"
  content = "<script>alert(1)</script>\n\ntext"
`))
	require.NoError(t, err)

	html, err := c.RenderSection("x", 0)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "<p>text</p>")
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	_, err := Load([]byte("[[tutorials]]\nslug = \"a\"\n[[tutorials]]\nslug = \"a\"\n"))
	assert.Error(t, err)

	_, err = Load([]byte("[[tutorials]]\ntitle = \"no slug\"\n"))
	assert.Error(t, err)
}

func TestFindProjects(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	id := func(p Project) string { return p.Title }

	newest := c.FindProjects(ProjectQuery{})
	assert.Equal(t, "AI-Powered Learning Platform", newest[0].Title)

	oldest := c.FindProjects(ProjectQuery{Sort: "oldest"})
	assert.Equal(t, "Sentiment Analysis Dashboard", oldest[0].Title)

	az := c.FindProjects(ProjectQuery{Sort: "az"})
	assert.Equal(t, "AI-Powered Learning Platform", az[0].Title)
	assert.Equal(t, "Smart Home Mobile App", az[len(az)-1].Title)

	beginner := c.FindProjects(ProjectQuery{Sort: "difficulty_beginner"})
	assert.Equal(t, "Beginner", beginner[0].Difficulty)
	assert.Equal(t, "Advanced", beginner[len(beginner)-1].Difficulty)

	assert.Equal(t,
		[]string{"AI-Powered Learning Platform", "Design System Library"},
		titles(c.FindProjects(ProjectQuery{Tags: []string{"react"}}), id))

	assert.Equal(t,
		[]string{"Educational Platform", "Smart Home Mobile App", "Design System Library"},
		titles(c.FindProjects(ProjectQuery{Difficulties: []string{"beginner", "intermediate"}}), id))

	assert.Equal(t,
		[]string{"Sentiment Analysis Dashboard"},
		titles(c.FindProjects(ProjectQuery{Search: "bert"}), id))
}

func TestFindPosts(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	slug := func(p Post) string { return p.Slug }

	tests := []struct {
		name  string
		query PostQuery
		want  []string
	}{
		{"newest first", PostQuery{}, []string{
			"typescript-types-that-disappear",
			"why-every-developer-needs-a-playground",
			"semantic-html-first",
		}},
		{"category", PostQuery{Category: "web development"}, []string{
			"typescript-types-that-disappear",
			"semantic-html-first",
		}},
		{"tag", PostQuery{Tag: "typescript"}, []string{"typescript-types-that-disappear"}},
		{"search", PostQuery{Search: "accessibility"}, []string{"semantic-html-first"}},
		{"no match", PostQuery{Tag: "rust"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(c.FindPosts(tt.query), slug))
		})
	}
}

func TestPostAndRender(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p, err := c.Post("typescript-types-that-disappear")
	require.NoError(t, err)
	assert.Equal(t, "Michael Chen", p.Author.Name)
	require.NotNil(t, p.Series)
	assert.Equal(t, 1, p.Series.Order)
	assert.Equal(t, DefaultPostImage, p.Image)

	html, err := c.RenderPost(p.Slug)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<code>x as number</code>")

	_, err = c.Post("missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = c.RenderPost("missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestLoadRejectsDuplicatePosts(t *testing.T) {
	_, err := Load([]byte("[[posts]]\nslug = \"a\"\n[[posts]]\nslug = \"a\"\n"))
	assert.Error(t, err)

	_, err = Load([]byte("[[posts]]\ntitle = \"no slug\"\n"))
	assert.Error(t, err)
}
