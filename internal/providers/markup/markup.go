// Package markup renders HTML snippets into a detached document for the
// playground preview.
//
// Built on:
//   - goquery / x/net/html: parsing into a document that is never attached
//     to anything the host serves
//   - htmlquery: XPath census of the parsed tree
//   - bluemonday: sanitized copy of the markup for the preview pane
//   - chardet: charset detection before parsing
package markup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

// ErrTooLarge is returned for documents over MaxHTMLSize.
var ErrTooLarge = errors.New("html exceeds maximum size")

// Preview summarizes a rendered document.
type Preview struct {
	Title     string `json:"title,omitempty"`
	Charset   string `json:"charset"`
	Elements  int    `json:"elements"`
	Scripts   int    `json:"scripts"`
	Sanitized string `json:"sanitized"`
}

// Renderer writes markup into short-lived detached documents.
type Renderer struct {
	sanitizer *bluemonday.Policy
	maxSize   int
	open      atomic.Int64
}

// NewRenderer creates a renderer with the user-generated-content policy.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("html", "head", "body", "title", "header", "main", "footer", "section", "article", "nav")
	return &Renderer{
		sanitizer: policy,
		maxSize:   MaxHTMLSize,
	}
}

// Render parses source into a detached document, summarizes it and tears the
// document down before returning, whatever the outcome.
func (r *Renderer) Render(ctx context.Context, source string) (*Preview, error) {
	if len(source) > r.maxSize {
		return nil, fmt.Errorf("%w of %d bytes", ErrTooLarge, r.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := r.openFrame(source)
	if err != nil {
		return nil, err
	}
	defer f.close()

	return f.preview(r.sanitizer, source)
}

// OpenFrames reports how many detached documents are currently alive.
func (r *Renderer) OpenFrames() int64 {
	return r.open.Load()
}

// frame is one detached document.
type frame struct {
	owner   *Renderer
	root    *html.Node
	doc     *goquery.Document
	charset string
}

func (r *Renderer) openFrame(source string) (*frame, error) {
	data := []byte(source)
	detected := DetectCharset(data)

	reader, err := charset.NewReaderLabel(detected, bytes.NewReader(data))
	if err != nil {
		reader = strings.NewReader(source)
	}

	root, err := htmlquery.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	r.open.Add(1)
	return &frame{
		owner:   r,
		root:    root,
		doc:     goquery.NewDocumentFromNode(root),
		charset: detected,
	}, nil
}

func (f *frame) preview(policy *bluemonday.Policy, source string) (*Preview, error) {
	elements, err := htmlquery.QueryAll(f.root, "//*")
	if err != nil {
		return nil, err
	}
	scripts, err := htmlquery.QueryAll(f.root, "//script")
	if err != nil {
		return nil, err
	}

	return &Preview{
		Title:     strings.TrimSpace(f.doc.Find("title").First().Text()),
		Charset:   f.charset,
		Elements:  len(elements),
		Scripts:   len(scripts),
		Sanitized: policy.Sanitize(source),
	}, nil
}

func (f *frame) close() {
	f.root = nil
	f.doc = nil
	f.owner.open.Add(-1)
}

// DetectCharset detects and returns charset from HTML bytes
func DetectCharset(data []byte) string {
	if len(data) == 0 {
		return "utf-8"
	}
	detector := chardet.NewHtmlDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}
