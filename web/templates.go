package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"sync"

	"github.com/yuin/goldmark"

	"releasedash/internal/releasenotes"
)

//go:embed *.html app.css
var content embed.FS

var (
	tmpl *template.Template
	once sync.Once

	md = goldmark.New()
)

// Templates returns the parsed HTML templates for the UI, embedded at build time.
// layout.html renders the page named by LayoutData.PageTemplate (release_notes,
// overview, feature, guide, settings, users) in its "content" block.
func Templates() *template.Template {
	once.Do(func() {
		tmpl = template.Must(template.New("ui").Funcs(funcMap()).ParseFS(content, "*.html"))
	})
	return tmpl
}

// StaticFS exposes embedded static assets such as CSS.
func StaticFS() fs.FS {
	return content
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"markdown":    Markdown,
		"stageTitle":  releasenotes.StageTitle,
		"hasCategory": releasenotes.HasCategory,
		"platforms":   platformList,
		"join":        strings.Join,
		"milestone": func(m *int) int {
			v, _ := releasenotes.Milestone(m)
			return v
		},
		"productCategories":    releasenotes.ProductCategories.Variants,
		"enterpriseCategories": releasenotes.EnterpriseFeatureCategories.Variants,
	}
}

// Markdown renders a feature summary. Raw HTML in the source is not passed
// through.
func Markdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func platformList(ps []releasenotes.Platform) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.String())
	}
	return strings.Join(names, ", ")
}
