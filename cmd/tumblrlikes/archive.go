package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"tumblrlikes/pkg/auth"
	"tumblrlikes/pkg/config"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/scraper"
	"tumblrlikes/pkg/ui"
)

var (
	blogName    string
	apiKey      string
	outputDir   string
	verbose     bool
	dumpPath    string
	restorePath string
	exportPath  string
)

func init() {
	rootCmd.Flags().StringVarP(&blogName, "blog", "b", "", "blog whose likes are archived")
	rootCmd.Flags().StringVarP(&apiKey, "api-key", "a", "", "Tumblr OAuth consumer key (default: stored credentials or TUMBLR_API_KEY)")
	rootCmd.Flags().StringVarP(&outputDir, "dir", "d", "", "download directory (default: downloads)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every request and file")
	rootCmd.Flags().StringVar(&dumpPath, "dump", "", "write liked posts to a JSON snapshot instead of downloading")
	rootCmd.Flags().StringVar(&restorePath, "load", "", "read liked posts from a JSON snapshot instead of the API")
	rootCmd.Flags().StringVar(&exportPath, "export", "", "render liked posts to an HTML page instead of downloading")
	rootCmd.MarkFlagsMutuallyExclusive("dump", "load")
	rootCmd.MarkFlagsMutuallyExclusive("dump", "export")
}

func buildFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if blogName != "" {
		flags["blog"] = blogName
	}
	if apiKey != "" {
		flags["api-key"] = apiKey
	}
	if outputDir != "" {
		flags["dir"] = outputDir
	}
	if cmd.Flags().Changed("dump") {
		flags["dump"] = dumpPath
	}
	if cmd.Flags().Changed("load") {
		flags["load"] = restorePath
	}
	if cmd.Flags().Changed("export") {
		flags["export"] = exportPath
	}
	if verbose {
		flags["verbose"] = true
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runArchive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, buildFlags(cmd))
	if err != nil {
		return err
	}

	// keep the console clean for the progress bar unless asked otherwise
	if !verbose && logLevel == "" && cfg.Logging.File == "" {
		cfg.Logging.Level = "error"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	if cfg.NeedsAPI() && cfg.Tumblr.APIKey == "" {
		if manager, err := auth.NewManager(); err == nil {
			if cred, err := manager.Resolve(cfg.Tumblr.BlogName); err == nil {
				cfg.Tumblr.APIKey = cred.APIKey
			}
		}
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	label := cfg.Tumblr.BlogName
	if label == "" {
		label = cfg.Mode.RestorePath
	}

	s := scraper.New(cfg, log)
	s.SetReporter(ui.NewProgressDisplay(label, cfg.Mode.Verbose))

	log.WithFields(map[string]interface{}{
		"version": version,
		"blog":    cfg.Tumblr.BlogName,
	}).Info("tumblrlikes starting")

	_, err = s.Run(ctx)
	return reportRunError(err)
}

// reportRunError prints diagnostics for the failures that end a run cleanly
// and passes everything else through as fatal
func reportRunError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, scraper.ErrLikesUnavailable):
		ui.PrintError("Could not read liked posts", err)
		ui.PrintWarning("Check the API key and blog name, and that the blog shares its likes")
		return nil
	case !apperrors.IsFatal(err):
		ui.PrintError("Snapshot is not a valid likes dump", err)
		return nil
	case errors.Is(err, context.Canceled):
		ui.PrintWarning("Interrupted")
		return err
	default:
		logger.WithError(err).Error("Run failed")
		return err
	}
}
