package extract

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestExtract_ContentAndStructure(t *testing.T) {
	html := `<!DOCTYPE html>
<html lang="nl">
<head>
  <title>Restaurants in Leiden</title>
  <meta name="description" content="Alle restaurants in Leiden op een rij.">
</head>
<body>
  <nav>Home | Over ons | Contact</nav>
  <header>Sitekop</header>
  <h1>Restaurants in Leiden</h1>
  <h2>Centrum</h2>
  <p>` + strings.Repeat("Een uitgebreide gids met de beste restaurants. ", 10) + `</p>
  <script>var tracking = true;</script>
  <footer>Copyright</footer>
</body>
</html>`

	e := New([]string{"example.nl"})
	result, err := e.Extract(strings.NewReader(html), mustParse(t, "https://example.nl/gids"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := result.Content
	if c.Title != "Restaurants in Leiden" {
		t.Fatalf("unexpected title: %q", c.Title)
	}
	if c.MetaDescription != "Alle restaurants in Leiden op een rij." {
		t.Fatalf("unexpected meta description: %q", c.MetaDescription)
	}
	if c.Lang != "nl" {
		t.Fatalf("unexpected lang: %q", c.Lang)
	}
	if len(c.Headings) != 2 || c.Headings[0] != "Restaurants in Leiden" {
		t.Fatalf("unexpected headings: %v", c.Headings)
	}
	for _, removed := range []string{"Over ons", "Sitekop", "tracking", "Copyright"} {
		if strings.Contains(c.Text, removed) {
			t.Fatalf("expected %q to be stripped, text: %q", removed, c.Text)
		}
	}
	if result.Empty {
		t.Fatalf("expected substantial page not to be empty")
	}
}

func TestExtract_ShortPageIsEmptyButKeepsLinks(t *testing.T) {
	html := `<html><body>
      <div id="app"></div>
      <a href="/bedrijven">Bedrijven</a>
    </body></html>`

	e := New([]string{"example.nl"})
	result, err := e.Extract(strings.NewReader(html), mustParse(t, "https://example.nl/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Empty {
		t.Fatalf("expected shell page to be flagged empty")
	}
	if len(result.Links) != 1 || result.Links[0] != "https://example.nl/bedrijven" {
		t.Fatalf("expected links to survive empty pages: %v", result.Links)
	}
}

func TestExtract_LinkFiltering(t *testing.T) {
	html := `<html><body>
      <a href="/bedrijven/1">intern</a>
      <a href="https://example.nl/bedrijven/2#reviews">fragment gestript</a>
      <a href="https://www.example.nl/bedrijven/3">www variant</a>
      <a href="https://other.com/bedrijven">extern</a>
      <a href="mailto:info@example.nl">mail</a>
      <a href="javascript:void(0)">script</a>
      <a href="#top">anker</a>
      <a href="/admin/dashboard">admin</a>
      <a href="/cart">winkelwagen</a>
      <a href="/logo.png">afbeelding</a>
      <a href="/feed">feed</a>
      <a href="/bedrijven/1">duplicaat</a>
    </body></html>`

	e := New([]string{"example.nl"})
	result, err := e.Extract(strings.NewReader(html), mustParse(t, "https://example.nl/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"https://example.nl/bedrijven/1",
		"https://example.nl/bedrijven/2",
		"https://www.example.nl/bedrijven/3",
	}
	if len(result.Links) != len(want) {
		t.Fatalf("unexpected links: %v", result.Links)
	}
	for i, link := range want {
		if result.Links[i] != link {
			t.Fatalf("link %d = %q, want %q", i, result.Links[i], link)
		}
	}
}

func TestExtract_LinkCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, `<a href="/pagina/%d">p%d</a>`, i, i)
	}
	sb.WriteString("</body></html>")

	e := New([]string{"example.nl"})
	result, err := e.Extract(strings.NewReader(sb.String()), mustParse(t, "https://example.nl/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Links) != maxLinks {
		t.Fatalf("expected link cap %d, got %d", maxLinks, len(result.Links))
	}
}

func TestExtract_TruncationKeepsValidUTF8(t *testing.T) {
	// After whitespace collapsing the text is "abc" followed by " é" repeated,
	// which puts a continuation byte exactly at the byte budget. A plain byte
	// slice there would split the rune.
	body := "abc " + strings.Repeat("é ", maxTextLength/2)
	html := fmt.Sprintf(`<html><body><p>%s</p></body></html>`, body)

	e := New([]string{"example.nl"})
	result, err := e.Extract(strings.NewReader(html), mustParse(t, "https://example.nl/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := result.Content.Text
	if len(text) > maxTextLength {
		t.Fatalf("expected text capped at %d bytes, got %d", maxTextLength, len(text))
	}
	if !utf8.ValidString(text) {
		t.Fatalf("truncated text is not valid UTF-8, tail: %q", text[len(text)-8:])
	}
	if result.Content.ContentLength <= maxTextLength {
		t.Fatalf("expected content length to report the uncut size, got %d", result.Content.ContentLength)
	}
}

func TestCanonicalHost(t *testing.T) {
	cases := map[string]string{
		"Example.NL":         "example.nl",
		"www.example.nl":     "example.nl",
		"example.nl:8080":    "example.nl",
		"WWW.Example.nl:443": "example.nl",
	}
	for input, want := range cases {
		if got := canonicalHost(input); got != want {
			t.Errorf("canonicalHost(%q) = %q, want %q", input, got, want)
		}
	}
}
