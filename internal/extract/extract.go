// Package extract derives clean page content and candidate listing links from
// fetched HTML documents.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// MinContentLength is the cleaned-text threshold below which a page is
	// treated as an empty shell (likely client-rendered) and not persisted.
	MinContentLength = 60

	maxTextLength = 8000
	maxHeadings   = 15
	maxLinks      = 25
)

// nonContentSelector matches structural elements removed before text cleanup.
const nonContentSelector = "script, style, noscript, nav, footer, header, aside, " +
	"[role=navigation], [role=banner], [role=contentinfo], [role=complementary]"

// skipPathParts marks administrative, transactional and feed paths that never
// lead to listing content.
var skipPathParts = []string{
	"/admin", "/wp-admin", "/login", "/logout", "/account", "/register",
	"/cart", "/checkout", "/feed", "/rss", "/wishlist", "/compare",
}

var skipExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".pdf", ".zip", ".gz", ".css", ".js", ".json", ".xml",
	".mp3", ".mp4", ".avi", ".doc", ".docx", ".xls", ".xlsx",
}

// Content is the cleaned, persisted view of one page.
type Content struct {
	URL             string
	Title           string
	MetaDescription string
	Text            string
	Headings        []string
	Lang            string
	ContentLength   int
}

// Result is the outcome of extracting one document. Empty pages are excluded
// from persistence but still contribute Links so the crawl can continue past
// them.
type Result struct {
	Content Content
	Empty   bool
	Links   []string
}

// Extractor cleans documents and discovers same-host listing links.
type Extractor struct {
	allowedHosts map[string]bool
	maxLinks     int
}

// New builds an extractor restricted to the given hosts. The "www." prefix is
// ignored on both sides of the comparison.
func New(allowedHosts []string) *Extractor {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, host := range allowedHosts {
		hosts[canonicalHost(host)] = true
	}
	return &Extractor{allowedHosts: hosts, maxLinks: maxLinks}
}

// Extract parses the document, removes non-content structure, and returns
// cleaned content plus discovered links.
func (e *Extractor) Extract(body io.Reader, pageURL *url.URL) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	links := e.discoverLinks(doc, pageURL)

	doc.Find(nonContentSelector).Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	meta, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	lang, _ := doc.Find("html").First().Attr("lang")

	var headings []string
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if heading := collapseWhitespace(s.Text()); heading != "" {
			headings = append(headings, heading)
		}
		return len(headings) < maxHeadings
	})

	text := collapseWhitespace(doc.Find("body").Text())
	length := len(text)
	if len(text) > maxTextLength {
		text = truncateAtRune(text, maxTextLength)
	}

	return &Result{
		Content: Content{
			URL:             pageURL.String(),
			Title:           title,
			MetaDescription: strings.TrimSpace(meta),
			Text:            text,
			Headings:        headings,
			Lang:            strings.TrimSpace(lang),
			ContentLength:   length,
		},
		Empty: length < MinContentLength,
		Links: links,
	}, nil
}

// discoverLinks resolves anchors to absolute form and applies scheme, host,
// path and extension filters, deduplicating and capping the result.
func (e *Extractor) discoverLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if !e.allowedHosts[canonicalHost(resolved.Host)] {
			return true
		}
		if skipPath(resolved.Path) {
			return true
		}

		resolved.Fragment = ""
		link := resolved.String()
		if seen[link] {
			return true
		}
		seen[link] = true
		links = append(links, link)

		return len(links) < e.maxLinks
	})

	return links
}

func skipPath(path string) bool {
	lower := strings.ToLower(path)
	for _, part := range skipPathParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	for _, ext := range skipExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func canonicalHost(host string) string {
	host = strings.ToLower(host)
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
