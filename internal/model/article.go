package model

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ContentType labels an article with the taxonomy used across the pipeline.
type ContentType string

const (
	TypeVulnerability      ContentType = "vulnerability"
	TypeSecurityAdvisory   ContentType = "security_advisory"
	TypeSecurityIncident   ContentType = "security_incident"
	TypeMalwareAnalysis    ContentType = "malware_analysis"
	TypeThreatIntelligence ContentType = "threat_intelligence"
	TypeSecurityNews       ContentType = "security_news"
	TypeBlogPost           ContentType = "blog_post"
	TypeCVE                ContentType = "cve"
	TypeSecurityNote       ContentType = "security_note"
	TypeResearch           ContentType = "research"
	TypePublication        ContentType = "publication"
	TypeBulletin           ContentType = "bulletin"
	TypeGeneral            ContentType = "general"
)

const (
	// MaxTitleLen is the byte cap applied to article titles.
	MaxTitleLen = 500
	// MaxContentLen is the byte cap applied to article bodies.
	MaxContentLen = 20000
)

// Article is a single extracted content item. It is produced by exactly one
// cascade stage and never mutated afterwards; downstream stages either accept
// or discard it.
type Article struct {
	Title            string      `json:"title"`
	Content          string      `json:"content"`
	URL              string      `json:"url"`
	PublishedAt      time.Time   `json:"published_at"`
	ContentType      ContentType `json:"content_type"`
	ExtractionMethod string      `json:"extraction_method"`
	Strategy         string      `json:"strategy,omitempty"`
	// FetchedAt is when the page that produced this article was retrieved.
	// Near-duplicate collapsing compares these timestamps.
	FetchedAt time.Time `json:"fetched_at"`
}

// NewArticle builds an Article with title and content truncated to their caps.
func NewArticle(title, content, url string, publishedAt time.Time) Article {
	return Article{
		Title:       Truncate(title, MaxTitleLen),
		Content:     Truncate(content, MaxContentLen),
		URL:         url,
		PublishedAt: publishedAt,
	}
}

// Truncate cuts s to at most max bytes without splitting a multi-byte rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Provenance records how an article was obtained. It is stored alongside the
// record for audit; it never influences dedup decisions.
type Provenance struct {
	ExtractionMethod string    `json:"extraction_method"`
	Strategy         string    `json:"strategy,omitempty"`
	ContentLength    int       `json:"content_length"`
	TitleLength      int       `json:"title_length"`
	SourceURL        string    `json:"url_source"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// Record is the persisted form of an accepted Article.
type Record struct {
	ID          uuid.UUID   `json:"id"`
	TargetID    string      `json:"target_id"`
	Title       string      `json:"title"`
	Content     string      `json:"content,omitempty"`
	URL         string      `json:"url"`
	PublishedAt time.Time   `json:"published_at"`
	ContentType ContentType `json:"content_type"`
	Recent      bool        `json:"recent"`
	Metadata    Provenance  `json:"metadata"`
	StoredAt    time.Time   `json:"stored_at"`
}

// NewRecord promotes an accepted article to its persisted form.
func NewRecord(targetID string, a Article, now time.Time) Record {
	fetched := a.FetchedAt
	if fetched.IsZero() {
		fetched = now
	}
	return Record{
		ID:          uuid.New(),
		TargetID:    targetID,
		Title:       a.Title,
		Content:     a.Content,
		URL:         a.URL,
		PublishedAt: a.PublishedAt,
		ContentType: a.ContentType,
		Metadata: Provenance{
			ExtractionMethod: a.ExtractionMethod,
			Strategy:         a.Strategy,
			ContentLength:    len(a.Content),
			TitleLength:      len(a.Title),
			SourceURL:        a.URL,
			FetchedAt:        fetched,
		},
		StoredAt: now,
	}
}
