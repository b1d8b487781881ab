// Package discover finds candidate article URLs for a target site by
// scanning well-known listing paths, with a feed/sitemap fallback tier.
package discover

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"secfeed/internal/fetcher"
)

// Method records how a candidate URL was found.
type Method string

const (
	MethodListing Method = "listing-path"
	MethodFeed    Method = "feed"
	MethodSitemap Method = "sitemap"
)

// Candidate is a discovered, not-yet-fetched link. It lives only for the
// duration of one crawl invocation.
type Candidate struct {
	URL            string
	SourceTargetID string
	Method         Method
}

// listingPaths are the well-known suffixes probed under a target's origin.
var listingPaths = []string{
	"/blog",
	"/news",
	"/articles",
	"/insights",
	"/resources/blog",
	"/resource-center/blog",
	"/press",
	"/updates",
	"/security-blog",
	"/threat-research",
	"/research",
	"/advisories",
	"/security/center",
	"/notes",
	"/publications",
	"/vulnerabilities",
	"/bulletins",
	"/alerts",
	"/security",
}

// feedPaths are the fallback feed/sitemap locations probed when no listing
// path yields candidates.
var feedPaths = []string{
	"/feed/",
	"/rss/",
	"/blog/feed/",
	"/blog/rss/",
	"/feed.xml",
	"/rss.xml",
	"/sitemap.xml",
	"/sitemap_index.xml",
}

// postPatterns is the high-precision tier: a path segment marker plus a
// year-like or slug-like token.
var postPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/blog/.*20[2-9][0-9]`),
	regexp.MustCompile(`/blog/[a-z0-9-]{8,}/?$`),
	regexp.MustCompile(`/advisory/.+`),
	regexp.MustCompile(`/advisories/.+`),
	regexp.MustCompile(`/security/.*20[2-9][0-9].+`),
	regexp.MustCompile(`/cve/.+`),
	regexp.MustCompile(`/vuln/.+`),
	regexp.MustCompile(`/nvd/.+`),
	regexp.MustCompile(`/notes?/.+`),
	regexp.MustCompile(`/bulletins?/.+`),
	regexp.MustCompile(`/research/.*[a-z0-9-]{8,}.+`),
	regexp.MustCompile(`/publications?/.+`),
	regexp.MustCompile(`/articles?/.*20[2-9][0-9].+`),
	regexp.MustCompile(`/posts?/.*20[2-9][0-9].+`),
}

// keywordSegments is the lower-precision tier: any anchor whose path carries
// one of these markers.
var keywordSegments = []string{
	"/blog/", "/advisory/", "/advisories/", "/security/", "/notes/",
	"/cve/", "/vuln/", "/research/", "/publications/", "/bulletins/",
	"/articles/",
}

var rejectFragments = []string{
	"mailto:", "javascript:", ".pdf", ".doc", ".jpg", ".jpeg", ".png",
	".gif", ".svg", "search", "feed", "/tag/", "/category/", "/page/",
}

var feedLinkRe = regexp.MustCompile(`<link[^>]*>([^<]+)</link>|<guid[^>]*>([^<]+)</guid>|<loc>([^<]+)</loc>`)

// Fetcher is the page retrieval capability discovery depends on.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Page, error)
	FetchProfile(ctx context.Context, url string, profile fetcher.Profile) (*fetcher.Page, error)
}

// Engine scans a target for candidate content URLs.
type Engine struct {
	fetcher Fetcher
	logger  *zap.Logger
	quota   int
}

// New builds an Engine. quota bounds the number of accumulated candidates;
// discovery stops early once it is reached.
func New(f Fetcher, quota int, logger *zap.Logger) *Engine {
	return &Engine{fetcher: f, logger: logger, quota: quota}
}

// Discover produces a deduplicated, same-domain list of candidate URLs for
// the target base URL, in insertion order of first discovery. An unreachable
// listing path is skipped silently; only a cancelled context aborts.
func (e *Engine) Discover(ctx context.Context, targetID, baseURL string) ([]Candidate, error) {
	origin, host, err := originOf(baseURL)
	if err != nil {
		return nil, err
	}

	listings := make([]string, 0, len(listingPaths)+1)
	for _, p := range listingPaths {
		listings = append(listings, origin+p)
	}
	listings = append(listings, baseURL)

	seen := make(map[string]struct{})
	var out []Candidate

	for _, listing := range listings {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		page, err := e.fetcher.Fetch(ctx, listing)
		if err != nil {
			e.logger.Debug("listing unreachable", zap.String("url", listing), zap.Error(err))
			continue
		}
		for _, u := range e.scanListing(page.Body, listing, origin, host, baseURL) {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, Candidate{URL: u, SourceTargetID: targetID, Method: MethodListing})
		}
		if len(out) >= e.quota {
			e.logger.Debug("discovery quota reached", zap.Int("candidates", len(out)))
			break
		}
	}

	if len(out) == 0 {
		out = e.discoverFromFeeds(ctx, targetID, origin)
	}

	e.logger.Info("discovery complete",
		zap.String("target", targetID),
		zap.Int("candidates", len(out)))
	return out, nil
}

// scanListing extracts article links from one listing page using both
// pattern tiers.
func (e *Engine) scanListing(html, listingURL, origin, host, baseURL string) []string {
	hrefs := extractHrefs(html)

	var urls []string
	seen := make(map[string]struct{})
	add := func(raw string) {
		u, ok := normalize(raw, origin, host, listingURL, baseURL)
		if !ok {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	// Tier one: precise path-marker patterns.
	for _, href := range hrefs {
		for _, re := range postPatterns {
			if re.MatchString(href) {
				add(href)
				break
			}
		}
	}

	// Tier two: generic anchors with keyword-bearing path segments.
	for _, href := range hrefs {
		for _, seg := range keywordSegments {
			if strings.Contains(href, seg) {
				add(href)
				break
			}
		}
	}

	return urls
}

var hrefRe = regexp.MustCompile(`<a[^>]+href=["']([^"']+)["']`)

func extractHrefs(html string) []string {
	matches := hrefRe.FindAllStringSubmatch(html, -1)
	hrefs := make([]string, 0, len(matches))
	for _, m := range matches {
		hrefs = append(hrefs, m[1])
	}
	return hrefs
}

// normalize resolves raw against origin, applies the reject rules and
// enforces the same-host constraint. The boolean reports acceptance.
func normalize(raw, origin, host, listingURL, baseURL string) (string, bool) {
	if raw == "" || strings.Contains(raw, "#") {
		return "", false
	}
	lower := strings.ToLower(raw)
	for _, frag := range rejectFragments {
		if strings.Contains(lower, frag) {
			return "", false
		}
	}

	if strings.HasPrefix(raw, "/") {
		raw = origin + raw
	} else if !strings.HasPrefix(raw, "http") {
		return "", false
	}
	raw = strings.TrimSuffix(raw, "/")

	if raw == strings.TrimSuffix(listingURL, "/") || raw == strings.TrimSuffix(baseURL, "/") || raw == origin {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() != host {
		return "", false
	}
	return raw, true
}

// discoverFromFeeds probes the well-known feed and sitemap paths, taking the
// first one that yields URLs.
func (e *Engine) discoverFromFeeds(ctx context.Context, targetID, origin string) []Candidate {
	e.logger.Debug("no listing candidates, probing feeds", zap.String("target", targetID))

	for _, p := range feedPaths {
		feedURL := origin + p
		page, err := e.fetcher.FetchProfile(ctx, feedURL, fetcher.ProfileFeedBot)
		if err != nil {
			continue
		}

		method := MethodFeed
		if strings.Contains(p, "sitemap") {
			method = MethodSitemap
		}

		var out []Candidate
		seen := make(map[string]struct{})
		for _, m := range feedLinkRe.FindAllStringSubmatch(page.Body, -1) {
			u := strings.TrimSpace(m[1] + m[2] + m[3])
			if !strings.HasPrefix(u, "http") {
				continue
			}
			u = strings.TrimSuffix(u, "/")
			if u == strings.TrimSuffix(origin, "/") {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, Candidate{URL: u, SourceTargetID: targetID, Method: method})
			if len(out) >= 20 {
				break
			}
		}
		if len(out) > 0 {
			e.logger.Info("feed fallback produced candidates",
				zap.String("feed", feedURL), zap.Int("count", len(out)))
			return out
		}
	}
	return nil
}

func originOf(baseURL string) (origin, host string, err error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", "", err
	}
	return u.Scheme + "://" + u.Host, u.Hostname(), nil
}
