package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/harrison/acrocheck/internal/api"
)

// storeToken saves a token in the credential store. Tests replace it.
var storeToken = api.StoreToken

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an Acrolinx access token in the system keyring",
		Long: `Store an access token for the configured server and client signature
in the operating system credential store. Later commands read it from there
when no access_token is configured.

The token is read from --token, from a hidden prompt on a terminal, or from
the first line of standard input.`,
		Args: cobra.NoArgs,
		RunE: loginCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().String("server", "", "Acrolinx server URL (overrides server_url)")
	cmd.Flags().String("token", "", "Access token to store")

	return cmd
}

// loginCommand implements the login command logic
func loginCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token, err = promptToken(cmd.InOrStdin(), cmd.ErrOrStderr(), u.Host)
		if err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("no token given")
	}

	if err := storeToken(cfg.ClientSignature, u.Hostname(), token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored token for %s\n", u.Hostname())
	return nil
}

// promptToken reads a token without echo on a terminal, else one line of in.
func promptToken(in io.Reader, out io.Writer, host string) (string, error) {
	if f, ok := in.(*os.File); ok && isInteractive(in) {
		fmt.Fprintf(out, "Access token for %s: ", host)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(data), nil
	}
	line, err := NewMenuReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return line, nil
}
