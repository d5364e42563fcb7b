package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"sio-go/internal/app"
	"sio-go/internal/config"
	"sio-go/internal/organize"

	"github.com/disiqueira/gotree/v3"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	// A local .env can supply SIO_CONFIG_PATH, SIO_HOME or tagger credentials.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config, applies any overrides and creates an App.
// The caller must defer a.Close().
func newApp(operation string, override func(*config.Config)) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if override != nil {
		override(cfg)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "sio",
	Short: "Smart image organizer",
}

// organize command
var organizeCmd = &cobra.Command{
	Use:   "organize [SOURCE]",
	Short: "Organize images into a dated, located layout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apply, _ := cmd.Flags().GetBool("apply")
		copyMode, _ := cmd.Flags().GetBool("copy")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		a, err := newApp("Organize", func(cfg *config.Config) {
			if copyMode {
				cfg.Organize.CopyMode = true
			}
			if onConflict != "" {
				cfg.Organize.ConflictPolicy = onConflict
			}
		})
		if err != nil {
			return err
		}
		defer a.Close()

		source := ""
		if len(args) > 0 {
			source, err = filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving source: %w", err)
			}
		}

		result, logPath, err := a.Organize(cmd.Context(), source, apply)
		if err != nil {
			return err
		}

		if !apply {
			fmt.Println("Dry run: no files were touched. Planned layout:")
			fmt.Print(planTree(result.Plan))
		}

		s := result.Summary
		fmt.Printf("%s: %d planned, %d succeeded, %d failed, %d skipped",
			s.Outcome(), s.Planned, s.Succeeded, s.Failed, s.Skipped)
		if result.Tagged > 0 {
			fmt.Printf(", %d tagged", result.Tagged)
		}
		fmt.Println()

		if apply && logPath != "" {
			fmt.Printf("Run log: %s\n", logPath)
		}
		return nil
	},
}

// planTree renders the planned destinations as a directory tree.
func planTree(plan *organize.Plan) string {
	byDir := make(map[string][]string)
	for _, op := range plan.Operations {
		dir := filepath.Dir(op.DestinationPath)
		name := filepath.Base(op.DestinationPath)
		if op.Action == organize.ActionSkipUnsorted {
			name += " (skipped: " + op.Reason + ")"
		}
		byDir[dir] = append(byDir[dir], name)
	}

	dirs := make([]string, 0, len(byDir))
	for d := range byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)

	root := gotree.New(".")
	for _, d := range dirs {
		branch := root.Add(d)
		sort.Strings(byDir[d])
		for _, name := range byDir[d] {
			branch.Add(name)
		}
	}
	return root.Print()
}

// undo command
var undoCmd = &cobra.Command{
	Use:   "undo LOGFILE",
	Short: "Reverse a previously applied run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		logPath, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving log path: %w", err)
		}

		if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Printf("Undo every operation recorded in %s? [y/N] ", logPath)
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading confirmation: %w", err)
			}
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp("Undo", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.Undo(cmd.Context(), logPath)
		if err != nil {
			return err
		}

		fmt.Printf("Undo complete: %d restored, %d removed, %d conflicts, %d skipped\n",
			summary.Restored, summary.Removed, summary.Conflicts, summary.Skipped)
		if summary.Conflicts > 0 {
			fmt.Println("Conflicted entries were left in place; see the log for details.")
		}
		return nil
	},
}

// cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the metadata cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CacheStats", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.CacheStats()
		if err != nil {
			return err
		}

		fmt.Printf("Entries: %d\n", stats.Size)
		fmt.Printf("Hits:    %d\n", stats.Hits)
		fmt.Printf("Misses:  %d\n", stats.Misses)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the metadata cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("CacheClear", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CacheClear(); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceDir, _ := cmd.Flags().GetString("source")
		destDir, _ := cmd.Flags().GetString("dest")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(sourceDir, destDir, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Source Dir:      %s\n", cfg.SourceDir)
		fmt.Printf("Dest Dir:        %s\n", cfg.DestDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Cache:           %s (%s)\n", cfg.Cache.Type, cfg.Cache.Path)
		fmt.Printf("Geocoder:        %s\n", cfg.Geocode.BaseURL)
		fmt.Printf("Tagger enabled:  %v\n", cfg.Tagger.Enabled)
		fmt.Printf("Copy mode:       %v\n", cfg.Organize.CopyMode)
		fmt.Printf("Conflict policy: %s\n", cfg.Organize.ConflictPolicy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(organizeCmd)
	organizeCmd.Flags().Bool("apply", false, "Execute the plan instead of previewing it")
	organizeCmd.Flags().Bool("copy", false, "Copy files instead of moving them")
	organizeCmd.Flags().String("on-conflict", "", "Conflict policy: rename or fail")

	rootCmd.AddCommand(undoCmd)
	undoCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("source", "", "Default source directory")
	configInitCmd.Flags().String("dest", "", "Destination directory for organized images")
	rootCmd.AddCommand(configCmd)
}
