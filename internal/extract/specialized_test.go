package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"secfeed/internal/fetcher"
	"secfeed/internal/model"
	"secfeed/internal/target"
)

func TestIsSpecializedHost(t *testing.T) {
	assert.True(t, IsSpecializedHost("https://www.cve.org/"))
	assert.True(t, IsSpecializedHost("https://nvd.nist.gov/vuln/search"))
	assert.True(t, IsSpecializedHost("https://sec.cloudapps.cisco.com/security/center"))
	assert.False(t, IsSpecializedHost("https://thehackernews.com/"))
}

func TestSpecialized_NoOpForOrdinaryHosts(t *testing.T) {
	f := fetcher.New(5*time.Second, 0, zap.NewNop())
	s := NewSpecialized(f, zap.NewNop())

	articles, err := s.Extract(context.Background(),
		target.Target{ID: "demo", BaseURL: "https://example.com"}, Request{})
	require.NoError(t, err)
	assert.Nil(t, articles)
}

func TestSpecialized_CVEListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ResourcesSupport/Resources" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body>
			<a href="/CVERecord?id=CVE-2024-12345">CVE-2024-12345</a>
			<a href="/CVERecord?id=CVE-2024-67890">CVE-2024-67890</a>
			<a href="/about">About the program</a>
		</body></html>`))
	}))
	defer srv.Close()

	f := fetcher.New(5*time.Second, 0, zap.NewNop())
	s := NewSpecialized(f, zap.NewNop())
	s.now = func() time.Time { return time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC) }

	articles, err := s.extractSource(context.Background(), srv.URL, specializedSources["cve.org"])
	require.NoError(t, err)
	require.Len(t, articles, 2, "anchors without a CVE id are ignored")

	a := articles[0]
	assert.Equal(t, "CVE-2024-12345", a.Title)
	assert.Equal(t, srv.URL+"/CVERecord?id=CVE-2024-12345", a.URL)
	assert.Equal(t, model.TypeCVE, a.ContentType)
	assert.Equal(t, "specialized_security_extraction_v1", a.ExtractionMethod)
	assert.Contains(t, a.Content, "CVE-2024-12345")
	assert.GreaterOrEqual(t, len(a.Content), 200)
}

func TestSpecialized_TitlePrefixAndMinLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/security/center/publicationListing.x" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<html><body>
			<a href="/security/center/content/CiscoSecurityAdvisory/cisco-sa-example">Router denial of service advisory</a>
			<a href="/security/center/content/CiscoSecurityAdvisory/cisco-sa-short">short</a>
		</body></html>`))
	}))
	defer srv.Close()

	f := fetcher.New(5*time.Second, 0, zap.NewNop())
	s := NewSpecialized(f, zap.NewNop())

	articles, err := s.extractSource(context.Background(), srv.URL, specializedSources["cisco.com"])
	require.NoError(t, err)
	require.Len(t, articles, 1)

	assert.Equal(t, "Cisco Advisory: Router denial of service advisory", articles[0].Title)
	assert.Equal(t, model.TypeSecurityAdvisory, articles[0].ContentType)
}

func TestSpecialized_UnreachableListingIsDry(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := fetcher.New(5*time.Second, 0, zap.NewNop())
	s := NewSpecialized(f, zap.NewNop())

	articles, err := s.extractSource(context.Background(), srv.URL, specializedSources["nvd.nist.gov"])
	require.NoError(t, err)
	assert.Empty(t, articles)
}
