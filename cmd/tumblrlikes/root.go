package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"tumblrlikes/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd archives the liked posts of one blog
var rootCmd = &cobra.Command{
	Use:   "tumblrlikes",
	Short: "Archive the posts a Tumblr blog has liked",
	Long: `tumblrlikes downloads the media of every post a blog has liked and names
the files by like order, oldest first ("1 - tumblr_xyz_1280.jpg").

Instead of downloading it can dump the liked posts to a JSON snapshot, or
render them to a single HTML page with local copies of their media.
Snapshots can be loaded back with --load, for example to export offline.

Re-running against the same directory only fetches new likes.`,
	Example: `  # Download all liked media of a blog
  tumblrlikes -b staff -a CONSUMER_KEY -d ./likes

  # Save a snapshot, then export it to HTML without calling the API
  tumblrlikes -b staff --dump likes.json
  tumblrlikes --load likes.json --export likes.html`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuiet(true)
		}
	},
	RunE: runArchive,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.tumblrlikes.yaml or ~/.config/tumblrlikes/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`tumblrlikes {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
