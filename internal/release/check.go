package release

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrNoAsset indicates the release has no asset with the expected name.
var ErrNoAsset = errors.New("release: package asset not found")

// NormalizeVersion strips surrounding space and a leading "v" from a tag.
func NormalizeVersion(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "v")
	return strings.TrimPrefix(tag, "V")
}

func canonical(v string) string {
	return semver.Canonical("v" + NormalizeVersion(v))
}

// Newer reports whether candidate is a later version than current.
// An unparseable current version is treated as older than any valid
// candidate; an unparseable candidate is never newer.
func Newer(candidate, current string) bool {
	cand := canonical(candidate)
	if cand == "" {
		return false
	}
	cur := canonical(current)
	if cur == "" {
		return true
	}
	return semver.Compare(cand, cur) > 0
}

// AssetURL returns the download URL of the asset called name.
func AssetURL(rel *Release, name string) (string, error) {
	if rel == nil {
		return "", ErrNoAsset
	}
	for _, a := range rel.Assets {
		if a.Name == name && a.BrowserDownloadURL != "" {
			return a.BrowserDownloadURL, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNoAsset, name, rel.TagName)
}

// Check compares the installed version against rel. Drafts and
// prereleases never count as available updates.
func Check(rel *Release, current, assetName string) Update {
	u := Update{Current: NormalizeVersion(current)}
	if rel == nil {
		return u
	}

	u.Version = NormalizeVersion(rel.TagName)
	u.Homepage = rel.HTMLURL
	u.Notes = rel.Body
	u.PublishedAt = rel.PublishedAt
	if pkg, err := AssetURL(rel, assetName); err == nil {
		u.Package = pkg
	}

	u.Available = !rel.Draft && !rel.Prerelease && u.Package != "" && Newer(u.Version, u.Current)
	return u
}

// Details builds the release details view for the package called name.
func Details(rel *Release, name, slug, assetName string) Info {
	info := Info{Name: name, Slug: slug}
	if rel == nil {
		return info
	}
	info.Version = NormalizeVersion(rel.TagName)
	info.Homepage = rel.HTMLURL
	info.Changelog = rel.Body
	info.LastUpdated = rel.PublishedAt
	info.DownloadLink, _ = AssetURL(rel, assetName)
	return info
}
