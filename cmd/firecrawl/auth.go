package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"firecrawl/pkg/auth"
	"firecrawl/pkg/ui"
)

var loginAPIURL string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored API keys",
	Long: `Manage Firecrawl API keys stored on this machine.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - FIRECRAWL_API_KEY environment variable (read only)

Never share your API keys or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store an API key",
	Long: `Store an API key under a profile name. Without a name the key becomes the
default profile. The key is read without echo.`,
	Example: `  # Store the default key
  firecrawl auth login

  # Store a key for a second server
  firecrawl auth login staging --server https://crawl.staging.example/v1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Long:  `List stored profiles with masked API keys.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)

	loginCmd.Flags().StringVar(&loginAPIURL, "server", "", "API URL to use with this key")
}

func profileArg(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0])
	}
	return auth.DefaultProfile
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	auth.ShowAPIKeyGuide(out)

	if existing, _ := manager.Retrieve(name); existing != nil && existing.Name == name {
		fmt.Fprintf(out, "\n⚠️  Profile '%s' already exists. Replace its key? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprintf(out, "\n🔐 API key for profile '%s': ", name)
	key, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return auth.ErrInvalidCredentials
	}

	cred := &auth.Credential{Name: name, APIKey: key, APIURL: loginAPIURL}
	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Stored key %s for profile %s", auth.MaskKey(key), name))
	if name != auth.DefaultProfile {
		ui.PrintInfo("Use it with", "firecrawl --profile "+name+" <command>")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := profileArg(args)
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove profile %s: %w", name, err)
	}
	ui.PrintSuccess("Profile removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	if len(creds) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'firecrawl auth login' to add one")
		return nil
	}

	out := cmd.OutOrStdout()
	for _, cred := range creds {
		sanitized := auth.Sanitize(cred)
		fmt.Fprintf(out, "%s\n", ui.Cyan(sanitized.Name))
		fmt.Fprintf(out, "   API Key: %s\n", sanitized.APIKey)
		if sanitized.APIURL != "" {
			fmt.Fprintf(out, "   Server: %s\n", sanitized.APIURL)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readPassword reads a secret from the terminal without echo, falling back
// to a plain line when stdin is not a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
