package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
)

const maxExtractSize = 256 << 20 // 256 MB

var (
	// ErrEmptyPackage indicates a package archive without entries.
	ErrEmptyPackage = errors.New("release: package is empty")
	// ErrUnsafePath indicates an archive entry that would land outside the
	// extraction directory.
	ErrUnsafePath = errors.New("release: unsafe path in package")
)

// Installer downloads a release package and swaps it into Dir. The
// directory name is the package slug: whatever top-level folder the
// archive carries is renamed to it.
type Installer struct {
	Client     *Client
	Dir        string
	KeepBackup bool
	Log        zerolog.Logger
}

// Apply installs the package referenced by u and returns the install path.
func (in *Installer) Apply(ctx context.Context, u Update) (string, error) {
	if u.Package == "" {
		return "", ErrNoAsset
	}
	if in.Dir == "" {
		return "", errors.New("release: install directory not configured")
	}

	dst, err := filepath.Abs(in.Dir)
	if err != nil {
		return "", fmt.Errorf("release: resolving install dir: %w", err)
	}
	parent := filepath.Dir(dst)
	slug := filepath.Base(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("release: creating install parent: %w", err)
	}

	archive, err := os.CreateTemp(parent, "."+slug+"-*.zip")
	if err != nil {
		return "", fmt.Errorf("release: creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(archive.Name()) }()

	n, err := in.Client.Download(ctx, u.Package, archive)
	if closeErr := archive.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", err
	}
	in.Log.Info().Str("version", u.Version).Int64("bytes", n).Msg("package downloaded")

	staging, err := os.MkdirTemp(parent, "."+slug+"-staging-*")
	if err != nil {
		return "", fmt.Errorf("release: creating staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	root, err := Extract(archive.Name(), staging)
	if err != nil {
		return "", err
	}
	src := staging
	if root != "" {
		src = filepath.Join(staging, root)
		if root != slug {
			in.Log.Debug().Str("from", root).Str("to", slug).Msg("renaming package folder")
		}
	}

	if err := in.swap(src, dst); err != nil {
		return "", err
	}
	in.Log.Info().Str("version", u.Version).Str("dir", dst).Msg("package installed")
	return dst, nil
}

// swap moves src into place at dst, keeping dst.bak until the move
// succeeds so a failed install leaves the old tree intact.
func (in *Installer) swap(src, dst string) error {
	backup := dst + ".bak"
	_ = os.RemoveAll(backup)

	_, statErr := os.Stat(dst)
	hadOld := statErr == nil
	if hadOld {
		if err := os.Rename(dst, backup); err != nil {
			return fmt.Errorf("release: backing up current install: %w", err)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		if hadOld {
			_ = os.Rename(backup, dst)
		}
		return fmt.Errorf("release: moving package into place: %w", err)
	}

	if hadOld && !in.KeepBackup {
		_ = os.RemoveAll(backup)
	}
	return nil
}

// Extract unpacks the zip at path into dest and returns the single
// top-level folder shared by every entry, or "" if there is none.
func Extract(path, dest string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("release: opening package: %w", err)
	}
	defer func() { _ = r.Close() }()

	if len(r.File) == 0 {
		return "", ErrEmptyPackage
	}

	var written int64
	for _, f := range r.File {
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return "", fmt.Errorf("%w: %s", ErrUnsafePath, f.Name)
		}
		if f.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: symlink %s", ErrUnsafePath, f.Name)
		}

		target := filepath.Join(dest, rel)
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", fmt.Errorf("release: creating %s: %w", f.Name, err)
			}
			continue
		}

		n, err := extractFile(f, target, maxExtractSize-written)
		if err != nil {
			return "", err
		}
		written += n
	}

	return commonRoot(r.File), nil
}

func extractFile(f *zip.File, target string, budget int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("release: creating %s: %w", filepath.Dir(target), err)
	}

	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("release: reading %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	//nolint:gosec // target is checked with filepath.IsLocal by the caller
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, fmt.Errorf("release: creating %s: %w", f.Name, err)
	}

	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("release: writing %s: %w", f.Name, err)
	}
	if n > budget {
		return n, fmt.Errorf("release: package expands beyond %d bytes", maxExtractSize)
	}
	return n, nil
}

func commonRoot(files []*zip.File) string {
	root := ""
	for _, f := range files {
		name := strings.TrimPrefix(f.Name, "./")
		first, _, nested := strings.Cut(name, "/")
		if !nested {
			return "" // a file at the top level
		}
		if root == "" {
			root = first
		} else if first != root {
			return ""
		}
	}
	return root
}
