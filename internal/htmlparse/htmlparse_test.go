package htmlparse

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle_PrefersOpenGraph(t *testing.T) {
	doc, err := Parse(`<html><head>
		<meta property="og:title" content="OG Wins">
		<meta name="twitter:title" content="Twitter Loses">
		<title>Tag Loses | Some Site</title>
	</head><body><h1>H1 Loses</h1></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "OG Wins", Title(doc))
}

func TestTitle_FallsBackToTitleTagAndStripsSiteName(t *testing.T) {
	doc, err := Parse(`<html><head><title>Patch Tuesday Recap | Vendor Blog</title></head><body></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Patch Tuesday Recap", Title(doc))
}

func TestTitle_FallsBackToH1(t *testing.T) {
	doc, err := Parse(`<html><body><h1>  Breaking News  </h1></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Breaking News", Title(doc))
}

func TestTitle_DefaultsToUntitled(t *testing.T) {
	doc, err := Parse(`<html><body><p>nothing here</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Untitled", Title(doc))
}

func TestContent_ExtractsArticleContainer(t *testing.T) {
	body := strings.Repeat("A vulnerability was found in the widget service. ", 10)
	doc, err := Parse(`<html><body>
		<nav>Home About Contact</nav>
		<article><nav>inner nav junk</nav><p>` + body + `</p></article>
	</body></html>`)
	require.NoError(t, err)

	content := Content(doc)
	assert.Contains(t, content, "vulnerability was found")
	assert.NotContains(t, content, "inner nav junk")
	assert.NotContains(t, content, "Home About Contact")
}

func TestContent_ParagraphFallback(t *testing.T) {
	p := "<p>" + strings.Repeat("words in a paragraph here ", 4) + "</p>"
	doc, err := Parse(`<html><body>` + strings.Repeat(p, 5) + `</body></html>`)
	require.NoError(t, err)

	content := Content(doc)
	assert.Greater(t, len(content), 200)
}

func TestContent_EmptyWhenNothingSubstantial(t *testing.T) {
	doc, err := Parse(`<html><body><p>short</p></body></html>`)
	require.NoError(t, err)

	assert.Empty(t, Content(doc))
}

func TestContent_CapsAtTenThousand(t *testing.T) {
	doc, err := Parse(`<html><body><article>` + strings.Repeat("x", 30000) + `</article></body></html>`)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(Content(doc)), 10000)
}

func TestPublishedAt_MetaTagWinsOverURLDate(t *testing.T) {
	doc, err := Parse(`<html><head>
		<meta property="article:published_time" content="2024-03-15T10:30:00Z">
	</head><body></body></html>`)
	require.NoError(t, err)

	now := time.Now()
	got := PublishedAt(doc, "https://example.com/blog/2023/01/02/post", now)

	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), got)
}

func TestPublishedAt_RejectsPreCutoffYears(t *testing.T) {
	doc, err := Parse(`<html><head>
		<meta property="article:published_time" content="1999-01-01T00:00:00Z">
	</head><body></body></html>`)
	require.NoError(t, err)

	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	got := PublishedAt(doc, "https://example.com/post", now)

	assert.Equal(t, now, got, "pre-2020 dates are invalid; chain ends at now")
}

func TestPublishedAt_URLDateFallback(t *testing.T) {
	doc, err := Parse(`<html><body></body></html>`)
	require.NoError(t, err)

	got := PublishedAt(doc, "https://example.com/blog/2024/05/20/a-post", time.Now())
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), got)
}

func TestPublishedAt_DefaultsToNow(t *testing.T) {
	doc, err := Parse(`<html><body></body></html>`)
	require.NoError(t, err)

	now := time.Date(2025, 8, 29, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now, PublishedAt(doc, "https://example.com/post", now))
}

func TestHasArticleSignal(t *testing.T) {
	withArticle, err := Parse(`<html><body><article>x</article></body></html>`)
	require.NoError(t, err)
	assert.True(t, HasArticleSignal(withArticle))

	withPostClass, err := Parse(`<html><body><div class="post-body">x</div></body></html>`)
	require.NoError(t, err)
	assert.True(t, HasArticleSignal(withPostClass))

	plain, err := Parse(`<html><body><span>x</span></body></html>`)
	require.NoError(t, err)
	assert.False(t, HasArticleSignal(plain))
}
