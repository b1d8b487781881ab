package target

// builtin is the catalog of high-value security news sources, each with a
// selector profile tuned to its listing markup.
var builtin = []Target{
	{
		ID:      "thehackernews",
		Name:    "The Hacker News",
		BaseURL: "https://thehackernews.com",
		Selectors: Selectors{
			Articles: ".story-block, .clear.home-right .body-post, article, .story-link",
			Title:    ".home-title, .story-title, h2, h3",
			Content:  ".home-desc, .story-desc, .excerpt, p",
			Link:     `a[href*="/2025/"]`,
		},
	},
	{
		ID:      "darkreading",
		Name:    "Dark Reading",
		BaseURL: "https://www.darkreading.com",
		Selectors: Selectors{
			Articles: ".ListPreview-item, .story-package, .content-item, .river-well",
			Title:    ".ListPreview-title, .headline, h3, h2",
			Content:  ".ListPreview-description, .dek, .summary, p",
			Link:     `a[href*="/article/"]`,
		},
	},
	{
		ID:      "securityweek",
		Name:    "SecurityWeek",
		BaseURL: "https://www.securityweek.com",
		Selectors: Selectors{
			Articles: ".post, .news-item, .story, .article-item",
			Title:    ".post-title, .entry-title, h2, h3",
			Content:  ".post-excerpt, .excerpt, .summary, p",
			Link:     `a[href*="/news/"]`,
		},
	},
	{
		ID:      "krebsonsecurity",
		Name:    "Krebs on Security",
		BaseURL: "https://krebsonsecurity.com",
		Selectors: Selectors{
			Articles: ".post, .entry, article, .hentry",
			Title:    ".entry-title, .post-title, h1, h2",
			Content:  ".entry-summary, .excerpt, p",
			Link:     `a[href*="krebsonsecurity.com"]`,
		},
	},
	{
		ID:      "csoonline",
		Name:    "CSO",
		BaseURL: "https://www.csoonline.com",
		Selectors: Selectors{
			Articles: ".river-well, .listing-item, article, .item",
			Title:    ".headline, .river-well h3, h2",
			Content:  ".dek, .summary, .excerpt, p",
			Link:     `a[href*="/article/"]`,
		},
	},
	{
		ID:      "infosecurity",
		Name:    "Infosecurity Magazine",
		BaseURL: "https://www.infosecurity-magazine.com",
		Selectors: Selectors{
			Articles: ".news-item, .item, .post, .article",
			Title:    ".title, .headline, h3, h2",
			Content:  ".description, .summary, .excerpt, p",
			Link:     `a[href*="/news/"]`,
		},
	},
	{
		ID:      "cybersecuritydive",
		Name:    "Cybersecurity Dive",
		BaseURL: "https://www.cybersecuritydive.com",
		Selectors: Selectors{
			Articles: ".feed__item, .story, .news-item",
			Title:    ".headline__text, .feed__title, h3",
			Content:  ".deck, .feed__excerpt, .summary",
			Link:     `a[href*="/news/"]`,
		},
	},
	{
		ID:      "cyberscoop",
		Name:    "CyberScoop",
		BaseURL: "https://www.cyberscoop.com",
		Selectors: Selectors{
			Articles: ".post-item, .story-item, article",
			Title:    ".entry-title, .post-title, h2",
			Content:  ".post-excerpt, .excerpt, .summary",
			Link:     `a[href*="cyberscoop.com"]`,
		},
	},
	{
		ID:      "schneier",
		Name:    "Schneier on Security",
		BaseURL: "https://www.schneier.com",
		Selectors: Selectors{
			Articles: ".entry, .post, .blog-post",
			Title:    ".entry-title, .post-title, h2",
			Content:  ".entry-content, .content, p",
			Link:     `a[href*="schneier.com"]`,
		},
	},
	{
		ID:      "troyhunt",
		Name:    "Troy Hunt Blog",
		BaseURL: "https://www.troyhunt.com",
		Selectors: Selectors{
			Articles: ".post, .blog-post, article",
			Title:    ".post-title, .entry-title, h1, h2",
			Content:  ".post-excerpt, .excerpt, .content",
			Link:     `a[href*="troyhunt.com"]`,
		},
	},
	{
		ID:      "helpnetsecurity",
		Name:    "Help Net Security",
		BaseURL: "https://www.helpnetsecurity.com",
		Selectors: Selectors{
			Articles: ".post, .news-item, article",
			Title:    ".entry-title, .post-title, h2",
			Content:  ".post-excerpt, .excerpt, .summary",
			Link:     `a[href*="helpnetsecurity.com"]`,
		},
	},
	{
		ID:      "cve",
		Name:    "CVE Program",
		BaseURL: "https://www.cve.org",
	},
	{
		ID:      "nvd",
		Name:    "National Vulnerability Database",
		BaseURL: "https://nvd.nist.gov",
	},
}

// GenericSelectors is the fallback profile for targets with no tuned
// selectors, mirroring common blog markup.
var GenericSelectors = Selectors{
	Articles: "article, .post, .news-item, .story",
	Title:    "h1, h2, h3, .title, .headline",
	Content:  ".content, .excerpt, .summary, p",
	Link:     "a",
}
