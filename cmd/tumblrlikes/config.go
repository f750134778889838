package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tumblrlikes/pkg/auth"
	"tumblrlikes/pkg/config"
	"tumblrlikes/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tumblrlikes configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (TUMBLR_API_KEY, TUMBLRLIKES_*)
  - .env files
  - Configuration file
  - Default values`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.tumblrlikes.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration after merging all sources. The API key is masked.`,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

const exampleConfig = `# tumblrlikes configuration
#
# Environment variables override these values:
#   TUMBLR_API_KEY, TUMBLRLIKES_BLOG, TUMBLRLIKES_OUTPUT_DIR,
#   TUMBLRLIKES_EXPORT_DIR, TUMBLRLIKES_REQUESTS_PER_MINUTE,
#   TUMBLRLIKES_DOWNLOAD_TIMEOUT, TUMBLRLIKES_LOG_LEVEL, TUMBLRLIKES_LOG_FILE

tumblr:
  # OAuth consumer key; prefer 'tumblrlikes auth login' over storing it here
  api_key: ""

  # Blog whose likes are archived
  blog_name: ""

  base_url: "https://api.tumblr.com"

  # Posts per page, at most 20
  page_size: 20

output:
  # Media go to <base_directory>/pics and <base_directory>/videos
  base_directory: "downloads"

  # Media referenced by an HTML export
  export_directory: "export"

  # Write <base_directory>/manifest.json after renaming
  write_manifest: true

download:
  timeout: 60s
  user_agent: "tumblrlikes/1.0"

rate_limit:
  # API requests per minute; media downloads are not limited
  requests_per_minute: 60

logging:
  # debug, info, warn, error
  level: "info"

  # Log to this file instead of the console
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".tumblrlikes.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.PrintSuccess("Created " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.Tumblr.APIKey != "" {
		shown.Tumblr.APIKey = auth.MaskKey(shown.Tumblr.APIKey)
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
