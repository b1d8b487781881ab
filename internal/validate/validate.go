// Package validate decides whether extracted candidates are accepted and
// assigns them a content-type label. Everything here is a pure function of
// its inputs.
package validate

import (
	"regexp"
	"strings"
	"time"

	"secfeed/internal/model"
)

const (
	// MinContentLen is the shared floor: no candidate below it is ever
	// accepted, regardless of keywords.
	MinContentLen = 200
	// MinTitleLen and MaxTitleLen bound heuristic-extracted titles.
	MinTitleLen = 5
	MaxTitleLen = 500
)

// SecurityKeywords flag content as security-relevant when present in title
// or body.
var SecurityKeywords = []string{
	"vulnerability", "breach", "security", "cyber", "hack", "threat",
	"malware", "ransomware", "phishing", "exploit", "cve", "attack",
	"incident", "advisory",
}

// securityPathSegments mark a URL as pointing at security content.
var securityPathSegments = []string{
	"/advisory/", "/advisories/", "/cve/", "/vuln/", "/notes/",
	"/bulletin/", "/bulletins/", "/security/",
}

var cveRe = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,}`)

// Signals carries the non-textual acceptance hints collected during
// extraction.
type Signals struct {
	// StructuralArticle is true when the source markup contained an
	// <article> tag or a content/post-classed container.
	StructuralArticle bool
}

// MeetsFloor applies the stage-independent minimums: the 200-character
// content floor and the title length bounds. Every cascade stage's output
// passes through this before persistence.
func MeetsFloor(a model.Article) bool {
	if len(a.Content) < MinContentLen {
		return false
	}
	return len(a.Title) >= MinTitleLen && len(a.Title) <= MaxTitleLen
}

// Accept reports whether an extracted candidate passes validation.
func Accept(a model.Article, sig Signals) bool {
	if !MeetsFloor(a) {
		return false
	}
	if HasSecurityKeyword(a.Title) || HasSecurityKeyword(a.Content) {
		return true
	}
	if sig.StructuralArticle {
		return true
	}
	return hasSecurityPath(a.URL)
}

// HasSecurityKeyword reports whether s contains any security keyword,
// case-insensitively.
func HasSecurityKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range SecurityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasSecurityPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, seg := range securityPathSegments {
		if strings.Contains(lower, seg) {
			return true
		}
	}
	return false
}

// Classify assigns a content-type label from title and body text. The
// decision table is ordered; the first match wins, so the same inputs always
// produce the same label.
func Classify(title, content string) model.ContentType {
	t := strings.ToLower(title)
	c := strings.ToLower(content)

	switch {
	case cveRe.MatchString(title) || cveRe.MatchString(content):
		return model.TypeVulnerability
	case strings.Contains(t, "vulnerability") || strings.Contains(c, "vulnerability"):
		return model.TypeVulnerability
	case strings.Contains(t, "advisory") || strings.Contains(c, "security advisory"):
		return model.TypeSecurityAdvisory
	case strings.Contains(t, "breach") || strings.Contains(c, "data breach"),
		strings.Contains(t, "hack") || strings.Contains(c, "hacked"):
		return model.TypeSecurityIncident
	case strings.Contains(t, "malware") || strings.Contains(c, "malware"),
		strings.Contains(t, "ransomware") || strings.Contains(c, "ransomware"):
		return model.TypeMalwareAnalysis
	case strings.Contains(t, "threat") || strings.Contains(c, "threat intelligence"):
		return model.TypeThreatIntelligence
	default:
		return model.TypeSecurityNews
	}
}

// TypeFromPath derives a source-specific default label from a URL path
// segment, for cascade stages that classify by provenance rather than text.
func TypeFromPath(rawURL string) model.ContentType {
	lower := strings.ToLower(rawURL)
	switch {
	case strings.Contains(lower, "/blog/"):
		return model.TypeBlogPost
	case strings.Contains(lower, "/advisory/") || strings.Contains(lower, "/advisories/"):
		return model.TypeSecurityAdvisory
	case strings.Contains(lower, "/cve/"):
		return model.TypeCVE
	case strings.Contains(lower, "/vuln/"):
		return model.TypeVulnerability
	case strings.Contains(lower, "/notes/"):
		return model.TypeSecurityNote
	case strings.Contains(lower, "/research/"):
		return model.TypeResearch
	case strings.Contains(lower, "/publications/"):
		return model.TypePublication
	case strings.Contains(lower, "/bulletins/"):
		return model.TypeBulletin
	default:
		return model.TypeGeneral
	}
}

// Recent reports whether publishedAt falls inside the recency window ending
// at now. Informational only: it never rejects a candidate.
func Recent(publishedAt, now time.Time, window time.Duration) bool {
	return publishedAt.After(now.Add(-window))
}
