// Package htmlparse extracts title, body text and publish dates from raw
// HTML. Every extraction path ends in a fallback, so malformed markup yields
// degraded output rather than errors.
package htmlparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

const (
	// minContentLen is the floor below which a container is considered empty
	// and the next fallback is tried.
	minContentLen = 200
	// maxContentLen caps the flattened body text.
	maxContentLen = 10000
	// minParagraphs is the paragraph count required for the <p> fallback.
	minParagraphs = 4
	// minValidYear guards against epoch and placeholder dates in markup.
	minValidYear = 2020
)

// contentContainers is the ordered chain of candidate body containers.
var contentContainers = []string{
	"article",
	`div[class*="content"]`,
	`div[class*="post"]`,
	`div[class*="entry"]`,
	"main",
	`div[class*="blog"]`,
	`div[id*="content"]`,
	`div[id*="main"]`,
}

// chromeSelectors are sub-blocks stripped from a container before
// flattening.
var chromeSelectors = []string{
	"nav", "aside", "footer", "script", "style",
	`div[class*="social"]`, `div[class*="share"]`, `div[class*="comment"]`,
}

var urlDateRe = regexp.MustCompile(`/(20\d{2})[/\-_]?(\d{2})[/\-_]?(\d{2})/`)

// Parse wraps goquery document construction. goquery tolerates broken
// markup, so the only error source is a failed read.
func Parse(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// Title resolves the page title: Open Graph, then Twitter card, then
// <title> with the site-name suffix stripped, then the first <h1>.
func Title(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if t := collapse(v); t != "" {
			return t
		}
	}
	if v, ok := doc.Find(`meta[name="twitter:title"]`).Attr("content"); ok {
		if t := collapse(v); t != "" {
			return t
		}
	}
	if t := collapse(doc.Find("title").First().Text()); t != "" {
		return stripSiteName(t)
	}
	if t := collapse(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return "Untitled"
}

// stripSiteName removes a trailing " | Site" / " - Site" style suffix at the
// first separator.
func stripSiteName(title string) string {
	for _, sep := range []string{" | ", " - ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
		}
	}
	return strings.TrimSpace(title)
}

// Content flattens the main body text. Container chain first, then the
// paragraph fallback, then the largest <div> text block.
func Content(doc *goquery.Document) string {
	for _, sel := range contentContainers {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}
		clone := container.Clone()
		for _, chrome := range chromeSelectors {
			clone.Find(chrome).Remove()
		}
		if text := collapse(clone.Text()); len(text) > minContentLen {
			return truncate(text)
		}
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() >= minParagraphs {
		var parts []string
		paragraphs.Each(func(_ int, s *goquery.Selection) {
			if t := collapse(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if text := strings.Join(parts, " "); len(text) > minContentLen {
			return truncate(text)
		}
	}

	var best string
	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); len(text) > len(best) && len(text) > minContentLen {
			best = text
		}
	})
	return truncate(best)
}

// PublishedAt resolves the publish date: structured metadata, a date-classed
// element, a date embedded in the URL path, then now. Values before 2020 are
// treated as invalid and the chain continues.
func PublishedAt(doc *goquery.Document, pageURL string, now time.Time) time.Time {
	metaSelectors := []struct {
		sel, attr string
	}{
		{`meta[property="article:published_time"]`, "content"},
		{`meta[name="publish-date"]`, "content"},
		{`meta[name="date"]`, "content"},
		{`time[datetime]`, "datetime"},
	}
	for _, m := range metaSelectors {
		if v, ok := doc.Find(m.sel).First().Attr(m.attr); ok {
			if t, valid := parseDate(v); valid {
				return t
			}
		}
	}

	for _, sel := range []string{`span[class*="date"]`, `div[class*="date"]`} {
		if v := collapse(doc.Find(sel).First().Text()); v != "" {
			if t, valid := parseDate(v); valid {
				return t
			}
		}
	}

	if m := urlDateRe.FindStringSubmatch(pageURL); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3]); err == nil {
			return t.UTC()
		}
	}

	return now
}

func parseDate(v string) (time.Time, bool) {
	t, err := dateparse.ParseAny(strings.TrimSpace(v))
	if err != nil || t.Year() < minValidYear {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// HasArticleSignal reports whether the markup carries a structural article
// hint, used by the validator as an acceptance signal.
func HasArticleSignal(doc *goquery.Document) bool {
	if doc.Find("article").Length() > 0 {
		return true
	}
	return doc.Find(`div[class*="post"], div[class*="content"], div[id*="content"]`).Length() > 0
}

// collapse trims and squeezes all runs of whitespace to single spaces.
// goquery's Text() already decodes entities and drops tags.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if len(s) <= maxContentLen {
		return s
	}
	cut := maxContentLen
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
