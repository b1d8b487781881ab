package extract

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"secfeed/internal/model"
	"secfeed/internal/target"
)

const methodSpecialized = "specialized_security_extraction_v1"

// maxSpecializedItems caps how many entries one specialized source yields.
const maxSpecializedItems = 20

// sourceSpec describes how to pull entries from one special-cased site: a
// fixed listing endpoint and an anchor pattern whose first group is the link
// and second the entry title.
type sourceSpec struct {
	listingPath string
	anchorRe    *regexp.Regexp
	titlePrefix string
	contentType model.ContentType
	summary     string
	// titleFilter, when set, drops anchors whose text does not contain it.
	titleFilter string
	minTitleLen int
}

// specializedSources maps hostname fragments to their extraction spec. These
// are high-value portals whose markup does not follow blog conventions.
var specializedSources = map[string]sourceSpec{
	"cve.org": {
		listingPath: "/ResourcesSupport/Resources",
		anchorRe:    regexp.MustCompile(`(?i)<a[^>]*href="([^"]*CVE-[0-9]{4}-[0-9]+[^"]*)"[^>]*>([^<]+)</a>`),
		contentType: model.TypeCVE,
		summary:     "CVE Entry: %s. This identifier tracks a publicly disclosed cybersecurity vulnerability catalogued by the CVE Program. The full record lists the affected products and versions, references to vendor advisories, and the current assignment status. Visit the full CVE details for complete vulnerability information.",
		titleFilter: "CVE-",
	},
	"nvd.nist.gov": {
		listingPath: "/vuln/search",
		anchorRe:    regexp.MustCompile(`(?i)<a[^>]*href="([^"]*/vuln/detail/CVE-[0-9]{4}-[0-9]+)"[^>]*>([^<]+)</a>`),
		titlePrefix: "NVD: ",
		contentType: model.TypeVulnerability,
		summary:     "National Vulnerability Database entry for %s. The NVD record contains detailed vulnerability analysis, CVSS severity scoring, affected configuration enumerations, and links to vendor patches and third-party advisories for this security vulnerability.",
	},
	"sap.com": {
		listingPath: "/notes",
		anchorRe:    regexp.MustCompile(`(?i)<a[^>]*href="([^"]*note[^"]*)"[^>]*>([^<]+)</a>`),
		titlePrefix: "SAP Note: ",
		contentType: model.TypeSecurityNote,
		summary:     "SAP Security Note containing important security updates and patches for SAP products. %s. The note describes the vulnerability being addressed, the affected components and releases, and the corrections or workarounds customers should apply to stay protected.",
		minTitleLen: 10,
	},
	"cisco.com": {
		listingPath: "/security/center/publicationListing.x",
		anchorRe:    regexp.MustCompile(`(?i)<a[^>]*href="([^"]*advisory[^"]*)"[^>]*>([^<]+)</a>`),
		titlePrefix: "Cisco Advisory: ",
		contentType: model.TypeSecurityAdvisory,
		summary:     "Cisco Security Advisory providing details about security vulnerabilities in Cisco products and recommended actions. %s. The advisory covers the affected platforms, available software fixes, workarounds where applicable, and exploitation status known to Cisco.",
		minTitleLen: 10,
	},
}

// IsSpecializedHost reports whether a hostname matches the special-case
// registry.
func IsSpecializedHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for frag := range specializedSources {
		if strings.Contains(host, frag) {
			return true
		}
	}
	return false
}

// Specialized is the cascade stage for sources in the registry. For any
// other target it is a no-op that lets the cascade fall through.
type Specialized struct {
	fetcher Fetcher
	logger  *zap.Logger
	now     func() time.Time
}

// NewSpecialized builds the specialized stage.
func NewSpecialized(f Fetcher, logger *zap.Logger) *Specialized {
	return &Specialized{fetcher: f, logger: logger, now: time.Now}
}

func (s *Specialized) Name() string { return "specialized" }

func (s *Specialized) Extract(ctx context.Context, tgt target.Target, req Request) ([]model.Article, error) {
	base := tgt.BaseURL
	if req.DirectURL != "" {
		base = req.DirectURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, nil
	}
	host := strings.ToLower(u.Hostname())

	for frag, spec := range specializedSources {
		if strings.Contains(host, frag) {
			return s.extractSource(ctx, u.Scheme+"://"+u.Host, spec)
		}
	}
	return nil, nil
}

func (s *Specialized) extractSource(ctx context.Context, origin string, spec sourceSpec) ([]model.Article, error) {
	page, err := s.fetcher.Fetch(ctx, origin+spec.listingPath)
	if err != nil {
		s.logger.Debug("specialized listing unreachable", zap.String("origin", origin), zap.Error(err))
		return nil, nil
	}

	now := s.now()
	var articles []model.Article
	for _, m := range spec.anchorRe.FindAllStringSubmatch(page.Body, -1) {
		if len(articles) >= maxSpecializedItems {
			break
		}
		link, title := m[1], strings.TrimSpace(m[2])
		if spec.titleFilter != "" && !strings.Contains(title, spec.titleFilter) {
			continue
		}
		if len(title) <= spec.minTitleLen {
			continue
		}
		if !strings.HasPrefix(link, "http") {
			link = origin + link
		}

		a := model.NewArticle(
			spec.titlePrefix+title,
			strings.ReplaceAll(spec.summary, "%s", title),
			link,
			now,
		)
		a.ContentType = spec.contentType
		a.ExtractionMethod = methodSpecialized
		a.FetchedAt = page.FetchedAt
		articles = append(articles, a)
	}

	s.logger.Info("specialized extraction complete",
		zap.String("origin", origin),
		zap.Int("items", len(articles)))
	return articles, nil
}
