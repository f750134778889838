package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tumblrlikes/pkg/auth"
	"tumblrlikes/pkg/config"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/tumblr"
	"tumblrlikes/pkg/ui"
)

var (
	checkBlog string
	stdin     = bufio.NewReader(os.Stdin)
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Tumblr API key",
	Long: `Manage stored Tumblr API keys.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - TUMBLR_API_KEY environment variable (read only)

A key stored under a blog name is used for that blog; otherwise the
"default" key is used.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an API key",
	Long: `Store a Tumblr OAuth consumer key in the system keychain or encrypted file.

The key is read without echo. Without a name it is stored as the default key.`,
	Example: `  # Store the default key
  tumblrlikes auth login

  # Store a key for one blog and check it can read that blog's likes
  tumblrlikes auth login staff --check staff`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List stored API keys",
	Long:  `List stored API keys with the key itself masked.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVar(&checkBlog, "check", "", "verify the key by reading this blog's like count")
}

func credentialName(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return tumblr.NormalizeBlogName(args[0])
	}
	return auth.DefaultName
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	auth.ShowAPIKeyGuide(cmd.OutOrStdout())

	if existing, _ := manager.Retrieve(name); existing != nil && !existing.LastModified.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "\nA key for '%s' already exists. Replace it? (y/N): ", name)
		answer, _ := stdin.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			return nil
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), "\nOAuth consumer key: ")
	key, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return fmt.Errorf("API key is required")
	}

	if checkBlog != "" {
		count, err := checkKey(cmd.Context(), key, checkBlog)
		if err != nil {
			return fmt.Errorf("key check failed: %w", err)
		}
		ui.PrintInfo("Liked posts", fmt.Sprintf("%d on %s", count, checkBlog))
	}

	if err := manager.Store(&auth.Credential{Name: name, APIKey: key}); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Stored API key '%s'", name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := credentialName(args)
	if err := manager.Delete(name); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed API key '%s'", name))
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		ui.PrintWarning("No API keys stored. Run 'tumblrlikes auth login'.")
		return nil
	}

	for _, cred := range creds {
		masked := auth.Sanitize(cred)
		when := "from environment"
		if !cred.LastModified.IsZero() {
			when = cred.LastModified.Format("2006-01-02 15:04")
		}
		ui.PrintInfo(masked.Name, fmt.Sprintf("%s %s", masked.APIKey, ui.Dim("("+when+")")))
	}
	return nil
}

// checkKey reads blog's like count with key
func checkKey(ctx context.Context, key, blog string) (int, error) {
	cfg := config.DefaultConfig()
	client := tumblr.NewClient(key, cfg.Download.Timeout, logger.NewNopLogger())
	client.SetBaseURL(cfg.Tumblr.BaseURL)
	pager := tumblr.NewPager(client, tumblr.NormalizeBlogName(blog), cfg.Tumblr.PageSize, logger.NewNopLogger())
	return pager.Count(ctx)
}

func readSecret() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
