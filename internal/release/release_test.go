package release

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theirongolddev/wealthtax/internal/store"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const releaseJSON = `{
	"tag_name": "v1.3.0",
	"name": "1.3.0",
	"body": "Adds YAML data sources.",
	"html_url": "https://github.com/hexa-decim8/Molotools/releases/tag/v1.3.0",
	"published_at": "2026-03-01T12:00:00Z",
	"assets": [
		{"name": "checksums.txt", "browser_download_url": "%[1]s/dl/checksums.txt"},
		{"name": "wealth-tax-calculator.zip", "browser_download_url": "%[1]s/dl/wealth-tax-calculator.zip"}
	]
}`

func newTestClient(t *testing.T, baseURL string, cache Cache) *Client {
	t.Helper()
	return NewClient(Options{
		Repo:    "hexa-decim8/Molotools",
		Token:   "ghp_test",
		BaseURL: baseURL,
		Cache:   cache,
		Limiter: rate.NewLimiter(rate.Inf, 1),
		Logger:  zerolog.Nop(),
	})
}

func openCache(t *testing.T) *store.Cache {
	t.Helper()
	c, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLatest_SendsHeadersAndCaches(t *testing.T) {
	var hits atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/repos/hexa-decim8/Molotools/releases/latest", r.URL.Path)
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		fmt.Fprintf(w, releaseJSON, srv.URL)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, openCache(t))

	rel, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.3.0", rel.TagName)
	assert.Len(t, rel.Assets, 2)

	again, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rel.TagName, again.TagName)
	assert.Equal(t, int32(1), hits.Load(), "second lookup should come from the cache")

	require.NoError(t, c.Forget())
	_, err = c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestLatest_NegativeCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, openCache(t))

	_, err := c.Latest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")

	_, err = c.Latest(context.Background())
	assert.ErrorIs(t, err, ErrRecentFailure)
	assert.Equal(t, int32(1), hits.Load())
}

func TestLatest_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		header string
		want   error
	}{
		{http.StatusNotFound, "", ErrNotFound},
		{http.StatusUnauthorized, "", ErrUnauthorized},
		{http.StatusForbidden, "0", ErrRateLimited},
		{http.StatusTooManyRequests, "", ErrRateLimited},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tc.header != "" {
					w.Header().Set("X-RateLimit-Remaining", tc.header)
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL, nil).Latest(context.Background())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLatest_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	for range 3 {
		_, err := c.Latest(context.Background())
		require.Error(t, err)
	}
	_, err := c.Latest(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load())
}

func TestNewer(t *testing.T) {
	assert.True(t, Newer("1.3.0", "1.2.9"))
	assert.True(t, Newer("v1.10", "1.9.0"))
	assert.False(t, Newer("1.2.0", "v1.2.0"))
	assert.False(t, Newer("1.1.0", "1.2.0"))
	assert.True(t, Newer("1.0.0", "dev"))
	assert.False(t, Newer("nightly", "1.0.0"))
	assert.False(t, Newer("1.3.0-rc.1", "1.3.0"))
}

func TestCheck(t *testing.T) {
	rel := &Release{
		TagName: "v1.3.0",
		Body:    "notes",
		HTMLURL: "https://example.org/r",
		Assets:  []Asset{{Name: "wealth-tax-calculator.zip", BrowserDownloadURL: "https://example.org/p.zip"}},
	}

	u := Check(rel, "1.2.0", "wealth-tax-calculator.zip")
	assert.True(t, u.Available)
	assert.Equal(t, "1.3.0", u.Version)
	assert.Equal(t, "https://example.org/p.zip", u.Package)
	assert.Equal(t, "notes", u.Notes)

	assert.False(t, Check(rel, "v1.3.0", "wealth-tax-calculator.zip").Available)
	assert.False(t, Check(rel, "1.2.0", "other.zip").Available, "missing asset")

	pre := *rel
	pre.Prerelease = true
	assert.False(t, Check(&pre, "1.2.0", "wealth-tax-calculator.zip").Available)

	assert.False(t, Check(nil, "1.2.0", "wealth-tax-calculator.zip").Available)

	_, err := AssetURL(rel, "missing.zip")
	assert.ErrorIs(t, err, ErrNoAsset)

	info := Details(rel, "Billionaire Wealth Tax Calculator", "wealth-tax-calculator", "wealth-tax-calculator.zip")
	assert.Equal(t, "1.3.0", info.Version)
	assert.Equal(t, "https://example.org/p.zip", info.DownloadLink)
	assert.Equal(t, "notes", info.Changelog)
}

func TestExtract_RejectsUnsafePaths(t *testing.T) {
	for _, name := range []string{"../evil.php", "/etc/passwd", "pkg/../../evil.php"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			zipPath := filepath.Join(dir, "p.zip")
			require.NoError(t, os.WriteFile(zipPath, buildZip(t, map[string]string{name: "x"}), 0o600))

			_, err := Extract(zipPath, filepath.Join(dir, "out"))
			assert.ErrorIs(t, err, ErrUnsafePath)
		})
	}
}

func TestExtract_CommonRoot(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "p.zip")

	require.NoError(t, os.WriteFile(zipPath, buildZip(t, map[string]string{
		"pkg-1.3.0/plugin.php":      "<?php",
		"pkg-1.3.0/data/table.json": "{}",
	}), 0o600))
	root, err := Extract(zipPath, filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Equal(t, "pkg-1.3.0", root)

	require.NoError(t, os.WriteFile(zipPath, buildZip(t, map[string]string{
		"plugin.php":      "<?php",
		"data/table.json": "{}",
	}), 0o600))
	root, err = Extract(zipPath, filepath.Join(dir, "b"))
	require.NoError(t, err)
	assert.Equal(t, "", root)
	assert.FileExists(t, filepath.Join(dir, "b", "data", "table.json"))
}

func TestInstaller_ApplySwapsPackage(t *testing.T) {
	pkg := buildZip(t, map[string]string{
		"wealth-tax-calculator-1.3.0/wealth-tax-calculator.php": "<?php // 1.3.0",
		"wealth-tax-calculator-1.3.0/data/comparisons.json":     `{"comparisons":[]}`,
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dl/wealth-tax-calculator.zip", r.URL.Path)
		_, _ = w.Write(pkg)
	}))
	defer srv.Close()

	plugins := t.TempDir()
	dst := filepath.Join(plugins, "wealth-tax-calculator")
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "stale.php"), []byte("old"), 0o600))

	in := &Installer{Client: newTestClient(t, srv.URL, nil), Dir: dst, Log: zerolog.Nop()}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := in.Apply(ctx, Update{Available: true, Version: "1.3.0", Package: srv.URL + "/dl/wealth-tax-calculator.zip"})
	require.NoError(t, err)
	assert.Equal(t, dst, got)

	body, err := os.ReadFile(filepath.Join(dst, "wealth-tax-calculator.php"))
	require.NoError(t, err)
	assert.Equal(t, "<?php // 1.3.0", string(body))
	assert.NoFileExists(t, filepath.Join(dst, "stale.php"))
	assert.NoDirExists(t, dst+".bak")

	entries, err := os.ReadDir(plugins)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp and staging files should be cleaned up")
}

func TestInstaller_FailedDownloadKeepsOldTree(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dst := filepath.Join(t.TempDir(), "wealth-tax-calculator")
	require.NoError(t, os.MkdirAll(dst, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "keep.php"), []byte("old"), 0o600))

	in := &Installer{Client: newTestClient(t, srv.URL, nil), Dir: dst, Log: zerolog.Nop()}
	_, err := in.Apply(context.Background(), Update{Package: srv.URL + "/dl/missing.zip"})
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(dst, "keep.php"))

	_, err = in.Apply(context.Background(), Update{})
	assert.True(t, errors.Is(err, ErrNoAsset))
}
