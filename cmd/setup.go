package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file on disk, without flag or environment overrides.
	fileCfg, err := config.LoadFile()
	if err != nil {
		fileCfg = config.DefaultConfig()
	}

	source := fileCfg.General.DataSource
	rateText := strconv.FormatFloat(fileCfg.General.DefaultRate, 'f', -1, 64)
	themeName := theme.ByName(fileCfg.Appearance.Theme).Name
	addr := fileCfg.Server.Addr
	installDir := fileCfg.Update.InstallDir
	token := ""

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	tokenHint := "Optional, raises the GitHub API rate limit"
	if fileCfg.Update.Token != "" {
		tokenHint = "Current: " + maskToken(fileCfg.Update.Token) + " (leave empty to keep)"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to wealthtax").
				Description("Configure the calculator. Values are saved to\n"+config.Path()),
			huh.NewInput().
				Title("Comparison data source").
				Description("File, URL, base URL ending in /, or builtin").
				Value(&source).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("data source is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Default tax rate (%)").
				Description(fmt.Sprintf("Between %s and %s",
					cli.FormatRate(fileCfg.Engine.MinRate), cli.FormatRate(fileCfg.Engine.MaxRate))).
				Value(&rateText).
				Validate(func(s string) error {
					r, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil {
						return errors.New("enter a number")
					}
					if r < fileCfg.Engine.MinRate || r > fileCfg.Engine.MaxRate {
						return fmt.Errorf("must be between %g and %g", fileCfg.Engine.MinRate, fileCfg.Engine.MaxRate)
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Widget server address").
				Value(&addr),
			huh.NewInput().
				Title("Plugin install directory").
				Description("Where `wealthtax update apply` installs the package").
				Value(&installDir),
			huh.NewInput().
				Title("GitHub token").
				Description(tokenHint).
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}

	rate, _ := strconv.ParseFloat(strings.TrimSpace(rateText), 64)
	fileCfg.General.DataSource = strings.TrimSpace(source)
	fileCfg.General.DefaultRate = fileCfg.Engine.ClampRate(rate)
	fileCfg.Appearance.Theme = themeName
	fileCfg.Server.Addr = strings.TrimSpace(addr)
	fileCfg.Update.InstallDir = strings.TrimSpace(installDir)
	if t := strings.TrimSpace(token); t != "" {
		fileCfg.Update.Token = t
	}

	if err := config.Save(fileCfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	if dataset.Resolve(fileCfg.General.DataSource) != dataset.Builtin {
		fmt.Println("  Run `wealthtax comparisons` to check the data source.")
	}
	fmt.Println("  Run `wealthtax setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
