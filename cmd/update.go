package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/release"
	"github.com/theirongolddev/wealthtax/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	flagUpdateRefresh bool
	flagUpdateJSON    bool
	flagUpdateDir     string
	flagUpdateBackup  bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for and install new releases of the calculator package",
}

var updateCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the installed version with the latest release",
	RunE:  runUpdateCheck,
}

var updateInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show details of the latest release",
	RunE:  runUpdateInfo,
}

var updateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Download and install the latest release package",
	RunE:  runUpdateApply,
}

func init() {
	updateCmd.PersistentFlags().BoolVar(&flagUpdateRefresh, "refresh", false, "Ignore the cached release lookup")
	updateCheckCmd.Flags().BoolVar(&flagUpdateJSON, "json", false, "Print the result as JSON")
	updateInfoCmd.Flags().BoolVar(&flagUpdateJSON, "json", false, "Print the result as JSON")
	updateApplyCmd.Flags().StringVar(&flagUpdateDir, "dir", "", "Install directory (default [update] install_dir)")
	updateApplyCmd.Flags().BoolVar(&flagUpdateBackup, "keep-backup", false, "Keep the previous package as <dir>.bak")

	updateCmd.AddCommand(updateCheckCmd, updateInfoCmd, updateApplyCmd)
	rootCmd.AddCommand(updateCmd)
}

// latestRelease opens the release cache and looks up the latest release.
// The returned close func releases the cache.
func latestRelease(cmd *cobra.Command) (*release.Client, *release.Release, func(), error) {
	closeFn := func() {}

	opts := release.Options{
		Repo:        cfg.Update.Repo,
		Token:       cfg.Update.Token,
		UserAgent:   userAgent(),
		CacheTTL:    time.Duration(cfg.Update.CacheTTLHours) * time.Hour,
		NegativeTTL: time.Duration(cfg.Update.NegativeTTLMinutes) * time.Minute,
		Logger:      log,
	}

	cache, err := store.Open(store.DefaultPath())
	if err != nil {
		log.Debug().Err(err).Msg("release cache unavailable")
	} else {
		closeFn = func() { _ = cache.Close() }
		opts.Cache = cache
		if n, err := cache.Purge(); err == nil && n > 0 {
			log.Debug().Int64("entries", n).Msg("purged expired cache entries")
		}
	}

	client := release.NewClient(opts)
	if flagUpdateRefresh {
		if err := client.Forget(); err != nil {
			log.Debug().Err(err).Msg("clearing cached release failed")
		}
	}

	rel, err := client.Latest(cmd.Context())
	if err != nil {
		closeFn()
		return nil, nil, func() {}, fmt.Errorf("checking %s: %w", cfg.Update.Repo, err)
	}
	return client, rel, closeFn, nil
}

func runUpdateCheck(cmd *cobra.Command, _ []string) error {
	_, rel, done, err := latestRelease(cmd)
	if err != nil {
		return err
	}
	defer done()

	u := release.Check(rel, Version, cfg.Update.AssetName)
	if flagUpdateJSON {
		return printJSON(u)
	}

	fmt.Println()
	fmt.Println(cli.RenderField("Installed", u.Current, false))
	fmt.Println(cli.RenderField("Latest", u.Version, false))
	if !u.PublishedAt.IsZero() {
		fmt.Println(cli.RenderField("Published", humanize.Time(u.PublishedAt), false))
	}
	switch {
	case u.Available:
		fmt.Println(cli.RenderField("Status", "update available", true))
		fmt.Println(cli.RenderCitation("Release notes:", u.Homepage))
		fmt.Println()
		fmt.Println("  Run `wealthtax update apply` to install.")
	case u.Package == "":
		fmt.Println(cli.RenderWarning("release " + u.Version + " has no " + cfg.Update.AssetName + " asset"))
	default:
		fmt.Println(cli.RenderField("Status", "up to date", false))
	}
	fmt.Println()
	return nil
}

func runUpdateInfo(cmd *cobra.Command, _ []string) error {
	_, rel, done, err := latestRelease(cmd)
	if err != nil {
		return err
	}
	defer done()

	info := release.Details(rel, "Billionaire Wealth Tax Calculator", cfg.Update.Slug, cfg.Update.AssetName)
	if flagUpdateJSON {
		return printJSON(info)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(info.Name + " " + info.Version))
	fmt.Println()
	fmt.Println(cli.RenderField("Slug", info.Slug, false))
	fmt.Println(cli.RenderCitation("Homepage", info.Homepage))
	if info.DownloadLink != "" {
		fmt.Println(cli.RenderCitation("Download", info.DownloadLink))
	} else {
		fmt.Println(cli.RenderWarning("no " + cfg.Update.AssetName + " asset"))
	}
	if !info.LastUpdated.IsZero() {
		fmt.Println(cli.RenderField("Updated", info.LastUpdated.Local().Format("2006-01-02"), false))
	}
	if info.Changelog != "" {
		fmt.Println()
		fmt.Println(cli.RenderMarkdown(info.Changelog, 78))
	}
	fmt.Println()
	return nil
}

func runUpdateApply(cmd *cobra.Command, _ []string) error {
	dir := flagUpdateDir
	if dir == "" {
		dir = cfg.Update.InstallDir
	}
	if dir == "" {
		return errors.New("no install directory: set [update] install_dir or pass --dir")
	}
	if filepath.Base(dir) != cfg.Update.Slug {
		dir = filepath.Join(dir, cfg.Update.Slug)
	}

	client, rel, done, err := latestRelease(cmd)
	if err != nil {
		return err
	}
	defer done()

	u := release.Check(rel, Version, cfg.Update.AssetName)
	if !u.Available {
		fmt.Printf("  Already up to date (%s)\n", u.Current)
		return nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Installing %s into %s...\n", u.Version, dir)
	}
	in := &release.Installer{
		Client:     client,
		Dir:        dir,
		KeepBackup: flagUpdateBackup,
		Log:        log,
	}
	path, err := in.Apply(cmd.Context(), u)
	if err != nil {
		return err
	}

	fmt.Printf("  Installed %s at %s\n", u.Version, path)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
