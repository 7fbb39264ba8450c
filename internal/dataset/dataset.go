// Package dataset loads the comparison table from its data source.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/wealthtax/data"
	"github.com/theirongolddev/wealthtax/internal/model"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	// Builtin selects the dataset embedded in the binary.
	Builtin = "builtin"

	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// ErrMissingComparisons indicates a document without a comparisons field.
var ErrMissingComparisons = errors.New("dataset: document has no comparisons field")

// SnapshotStore keeps the last good body of each remote source.
type SnapshotStore interface {
	SaveSnapshot(source string, body []byte) error
	Snapshot(source string) ([]byte, time.Time, bool, error)
}

// Options tunes how remote sources are fetched.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	// Snapshots, when set, serves the last good copy of a remote source
	// if a fetch fails.
	Snapshots SnapshotStore
}

// Resolve normalizes a data source location. Base URLs and directories
// ending in a separator get the comparisons file name appended.
func Resolve(source string) string {
	source = strings.TrimSpace(source)
	switch {
	case source == "" || source == Builtin:
		return Builtin
	case isURL(source):
		if strings.HasSuffix(source, "/") {
			return source + data.ComparisonsName
		}
		return source
	default:
		if fi, err := os.Stat(source); err == nil && fi.IsDir() {
			return filepath.Join(source, data.ComparisonsName)
		}
		return source
	}
}

// Load reads and decodes the comparison table from source.
// On any failure it returns a nil table with the error; it never panics.
func Load(ctx context.Context, source string, opts Options) (model.Table, error) {
	loc := Resolve(source)

	var (
		raw []byte
		err error
	)
	switch {
	case loc == Builtin:
		raw = data.Comparisons
	case isURL(loc):
		raw, err = fetchWithSnapshot(ctx, loc, opts)
	default:
		//nolint:gosec // data source path is configured by the local user
		raw, err = os.ReadFile(loc)
		if err != nil {
			err = fmt.Errorf("dataset: reading %s: %w", loc, err)
		}
	}
	if err != nil {
		return nil, err
	}

	table, err := Decode(raw, formatFor(loc))
	if err != nil {
		return nil, fmt.Errorf("dataset: decoding %s: %w", loc, err)
	}
	return table, nil
}

// LoadOrEmpty is Load with local recovery: failures are logged and an
// empty table is returned so lookups fall back to the placeholder.
func LoadOrEmpty(ctx context.Context, source string, opts Options, log zerolog.Logger) model.Table {
	table, err := Load(ctx, source, opts)
	if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("comparison data unavailable, using empty table")
		return model.Table{}
	}
	for _, issue := range Validate(table) {
		log.Warn().Int("index", issue.Index).Str("kind", string(issue.Kind)).Msg(issue.Message)
	}
	log.Debug().Int("records", len(table)).Str("source", Resolve(source)).Msg("comparison data loaded")
	return table
}

// Format names a document encoding.
type Format string

// Supported document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Decode parses a data-source document. JSON input may carry comments and
// trailing commas.
func Decode(raw []byte, format Format) (model.Table, error) {
	var doc struct {
		Comparisons *model.Table `json:"comparisons" yaml:"comparisons"`
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	}

	if doc.Comparisons == nil {
		return nil, ErrMissingComparisons
	}
	return *doc.Comparisons, nil
}

// Encode renders a table as a JSON data-source document.
func Encode(table model.Table) ([]byte, error) {
	if table == nil {
		table = model.Table{}
	}
	return json.MarshalIndent(model.Document{Comparisons: table}, "", "  ")
}

func fetchWithSnapshot(ctx context.Context, loc string, opts Options) ([]byte, error) {
	raw, err := fetch(ctx, loc, opts)
	if opts.Snapshots == nil {
		return raw, err
	}
	if err == nil {
		if _, decErr := Decode(raw, formatFor(loc)); decErr == nil {
			_ = opts.Snapshots.SaveSnapshot(loc, raw)
		}
		return raw, nil
	}
	snap, _, ok, snapErr := opts.Snapshots.Snapshot(loc)
	if snapErr != nil || !ok {
		return nil, err
	}
	return snap, nil
}

func fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dataset: unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("dataset: reading response: %w", err)
	}
	return body, nil
}

func formatFor(loc string) Format {
	if isURL(loc) {
		loc = strings.SplitN(loc, "?", 2)[0]
		loc = path.Base(loc)
	}
	switch strings.ToLower(filepath.Ext(loc)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
