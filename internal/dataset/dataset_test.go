package dataset

import (
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

	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"

	"github.com/rs/zerolog"
)

const sampleJSONC = `{
	// ordered by revenue
	"comparisons": [
		{"minRevenue": 0, "maxRevenue": 100, "description": "a", "sourceText": "A", "sourceUrl": "https://a.example"},
		{"minRevenue": 101, "maxRevenue": 200, "description": "b", "sourceText": "B", "sourceUrl": "https://b.example"},
	]
}`

const sampleYAML = `comparisons:
  - minRevenue: 0
    maxRevenue: 100
    description: a
    sourceText: A
    sourceUrl: https://a.example
`

func TestLoad_Builtin(t *testing.T) {
	table, err := Load(context.Background(), Builtin, Options{})
	if err != nil {
		t.Fatalf("Load(builtin): %v", err)
	}
	if len(table) == 0 {
		t.Fatal("builtin table is empty")
	}
	if issues := Validate(table); len(issues) != 0 {
		t.Fatalf("builtin table has issues: %+v", issues)
	}

	// 2% of the default wealth must land inside a real record, not the fallback.
	rev := revenue.ComputeRevenue(revenue.DefaultTotalWealth, 2)
	found := false
	for _, c := range table {
		if c.Contains(rev) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no builtin record contains %.0f", rev)
	}
}

func TestLoad_FileJSONCAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "comparisons.json")
	yamlPath := filepath.Join(dir, "alt.yaml")
	if err := os.WriteFile(jsonPath, []byte(sampleJSONC), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := Load(context.Background(), jsonPath, Options{})
	if err != nil {
		t.Fatalf("Load(jsonc): %v", err)
	}
	if len(table) != 2 || table[1].Description != "b" || table[1].SourceURL != "https://b.example" {
		t.Fatalf("jsonc table = %+v", table)
	}

	// A directory resolves to its comparisons.json.
	table, err = Load(context.Background(), dir, Options{})
	if err != nil || len(table) != 2 {
		t.Fatalf("Load(dir) = %d records, err %v", len(table), err)
	}

	table, err = Load(context.Background(), yamlPath, Options{})
	if err != nil {
		t.Fatalf("Load(yaml): %v", err)
	}
	if len(table) != 1 || table[0].MaxRevenue != 100 {
		t.Fatalf("yaml table = %+v", table)
	}
}

func TestLoad_MissingComparisonsIsMalformed(t *testing.T) {
	_, err := Decode([]byte(`{"items": []}`), FormatJSON)
	if !errors.Is(err, ErrMissingComparisons) {
		t.Fatalf("err = %v, want ErrMissingComparisons", err)
	}
}

func TestLoad_RemoteBaseURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, sampleJSONC)
	}))
	defer srv.Close()

	table, err := Load(context.Background(), srv.URL+"/data/", Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("Load(remote): %v", err)
	}
	if gotPath != "/data/comparisons.json" {
		t.Fatalf("requested %q, want /data/comparisons.json", gotPath)
	}
	if len(table) != 2 {
		t.Fatalf("remote table has %d records, want 2", len(table))
	}
}

func TestLoadOrEmpty_RecoversFromFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.json" {
			_, _ = fmt.Fprint(w, "{not json")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	sources := []string{
		srv.URL + "/missing.json",
		srv.URL + "/broken.json",
		filepath.Join(t.TempDir(), "nope.json"),
	}
	for _, src := range sources {
		table := LoadOrEmpty(context.Background(), src, Options{HTTPClient: srv.Client()}, zerolog.Nop())
		if table == nil || len(table) != 0 {
			t.Fatalf("LoadOrEmpty(%s) = %+v, want empty table", src, table)
		}
		if got := revenue.FindComparison(1e11, table); !revenue.IsPlaceholder(got) {
			t.Fatalf("lookup on failed load returned %+v, want placeholder", got)
		}
	}
}

func TestResolve(t *testing.T) {
	cases := map[string]string{
		"":                               Builtin,
		" builtin ":                      Builtin,
		"https://x.example/plugin/data/": "https://x.example/plugin/data/comparisons.json",
		"https://x.example/c.yaml":       "https://x.example/c.yaml",
		"some/file.json":                 "some/file.json",
	}
	for in, want := range cases {
		if got := Resolve(in); got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeRoundTripsThroughDecode(t *testing.T) {
	table := model.Table{{MinRevenue: 1, MaxRevenue: 2, Description: "x", SourceText: "X", SourceURL: "#"}}
	raw, err := Encode(table)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(raw, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != table[0] {
		t.Fatalf("decoded %+v", got)
	}

	raw, _ = Encode(nil)
	got, err = Decode(raw, FormatJSON)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("Encode(nil) decoded to %+v, err %v", got, err)
	}
}

func TestValidate(t *testing.T) {
	table := model.Table{
		{MinRevenue: 0, MaxRevenue: 10},
		{MinRevenue: 5, MaxRevenue: 20},  // overlap
		{MinRevenue: 50, MaxRevenue: 40}, // gap and inverted
	}
	issues := Validate(table)
	kinds := map[IssueKind]int{}
	for _, is := range issues {
		kinds[is.Kind]++
	}
	if kinds[IssueOverlap] != 1 || kinds[IssueGap] != 1 || kinds[IssueInverted] != 1 {
		t.Fatalf("issues = %+v", issues)
	}

	if got := Validate(nil); len(got) != 1 || got[0].Kind != IssueEmpty {
		t.Fatalf("Validate(nil) = %+v", got)
	}
}

type memSnapshots map[string][]byte

func (m memSnapshots) SaveSnapshot(source string, body []byte) error {
	m[source] = body
	return nil
}

func (m memSnapshots) Snapshot(source string) ([]byte, time.Time, bool, error) {
	b, ok := m[source]
	return b, time.Time{}, ok, nil
}

func TestLoad_RemoteFallsBackToSnapshot(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if down.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, sampleJSONC)
	}))
	defer srv.Close()

	snaps := memSnapshots{}
	opts := Options{Snapshots: snaps}
	url := srv.URL + "/data/comparisons.json"

	first, err := Load(context.Background(), url, opts)
	if err != nil || len(first) != 2 {
		t.Fatalf("first Load = %d records, err %v", len(first), err)
	}
	if _, ok := snaps[url]; !ok {
		t.Fatal("successful fetch did not record a snapshot")
	}

	down.Store(true)
	second, err := Load(context.Background(), url, opts)
	if err != nil {
		t.Fatalf("Load with snapshot: %v", err)
	}
	if len(second) != 2 || second[1].Description != "b" {
		t.Fatalf("snapshot table = %+v", second)
	}

	if _, err := Load(context.Background(), url, Options{}); err == nil {
		t.Fatal("Load without snapshots should fail while the source is down")
	}
}
