package release

import "time"

// Release is the subset of a GitHub release document the updater reads.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}

// Update describes how an installed version relates to the latest release.
type Update struct {
	Available   bool      `json:"available"`
	Current     string    `json:"current"`
	Version     string    `json:"version"`
	Package     string    `json:"package,omitempty"`
	Homepage    string    `json:"homepage,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Info is the details view shown before installing a release.
type Info struct {
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Version      string    `json:"version"`
	Homepage     string    `json:"homepage"`
	DownloadLink string    `json:"downloadLink"`
	Changelog    string    `json:"changelog"`
	LastUpdated  time.Time `json:"lastUpdated,omitzero"`
}
