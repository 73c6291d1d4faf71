package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apierrors "github.com/bianoble/apicurio-sync/internal/errors"
	"github.com/bianoble/apicurio-sync/internal/output"
	"github.com/bianoble/apicurio-sync/internal/regctx"
)

var (
	contextURL         string
	contextMakeCurrent bool
	contextShowSecrets bool

	loginUsername      string
	loginPasswordStdin bool

	oidcIssuerURL  string
	oidcClientID   string
	oidcRefresh    string
	oidcExpiresIn  time.Duration
	oidcTokenStdin bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage registry contexts and credentials",
	Long: `A context is a named registry URL plus optional credentials, stored in the
context file. The context in use is --context, else APICURIO_SYNC_CONTEXT_NAME,
else the file's current context.`,
}

var contextCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the name of the selected context",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		f, err := loadContextFile(s, false)
		if err != nil {
			return err
		}
		name := selectedContext(s, f)
		if name == "" {
			return apierrors.NewSetupError("context", "no context selected", apierrors.ErrNotConfigured)
		}
		fmt.Fprintln(cmd.OutOrStdout(), name)
		return nil
	},
}

var contextInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an empty context file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		if err := regctx.WriteEmpty(s.ContextFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", s.ContextFile)
		return nil
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a context",
	Long: `Creates the named context, or updates its URL. A new context needs --url.
Stored credentials are kept. --current also makes it the current context.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		f, err := loadContextFile(s, true)
		if err != nil {
			return err
		}
		if err := f.Set(args[0], contextURL, contextMakeCurrent); err != nil {
			return err
		}
		return regctx.Save(s.ContextFile, f)
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the context file",
	Long:  `Shows every stored context. Passwords and tokens are masked unless --show-secrets is set.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		f, err := loadContextFile(s, false)
		if err != nil {
			return err
		}
		if !contextShowSecrets {
			f = f.Redacted()
		}

		p := newPrinter(cmd, s)
		if p.Format == output.FormatTable {
			return p.Print(contextsView{file: f})
		}
		return p.Print(f)
	},
}

var contextLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials on the selected context",
}

var contextLoginBasicCmd = &cobra.Command{
	Use:   "basic",
	Short: "Store a username and password",
	Long: `Stores basic credentials on the selected context. The password is read from
stdin with --password-stdin, otherwise prompted for on the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readSecret(cmd, "Password: ", loginPasswordStdin)
		if err != nil {
			return err
		}
		return storeAuth(cmd, regctx.Auth{Basic: &regctx.BasicAuth{
			Username: loginUsername,
			Password: password,
		}})
	},
}

var contextLoginOIDCCmd = &cobra.Command{
	Use:   "oidc",
	Short: "Store an OpenID Connect access token",
	Long: `Stores an access token, obtained from your identity provider's tooling, on
the selected context. The token is read from stdin with --token-stdin,
otherwise prompted for on the terminal. With --expires-in, runs after the
token expires fail until you log in again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readSecret(cmd, "Access token: ", oidcTokenStdin)
		if err != nil {
			return err
		}
		auth := &regctx.OIDCAuth{
			IssuerURL:    oidcIssuerURL,
			ClientID:     oidcClientID,
			AccessToken:  token,
			RefreshToken: oidcRefresh,
		}
		if oidcExpiresIn > 0 {
			auth.ExpiresAt = time.Now().Add(oidcExpiresIn).UTC().Truncate(time.Second)
		}
		return storeAuth(cmd, regctx.Auth{OIDC: auth})
	},
}

// loadContextFile reads the context file. With allowMissing, a missing file
// yields an empty one.
func loadContextFile(s *settings, allowMissing bool) (*regctx.File, error) {
	f, err := regctx.Load(s.ContextFile)
	if err != nil {
		if allowMissing && apierrors.Is(err, fs.ErrNotExist) {
			return &regctx.File{Contexts: make(map[string]regctx.Entry)}, nil
		}
		return nil, err
	}
	return f, nil
}

func selectedContext(s *settings, f *regctx.File) string {
	if s.ContextName != "" {
		return s.ContextName
	}
	return f.CurrentContext
}

func storeAuth(cmd *cobra.Command, auth regctx.Auth) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	f, err := loadContextFile(s, false)
	if err != nil {
		return err
	}
	name := selectedContext(s, f)
	if name == "" {
		return apierrors.NewSetupError("context", "no context selected; run 'apicurio-sync context set <name> --url <url> --current' first", apierrors.ErrNotConfigured)
	}
	if err := f.SetAuth(name, auth); err != nil {
		return err
	}
	if err := regctx.Save(s.ContextFile, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s credentials for context %q\n", auth.Kind(), name)
	return nil
}

// readSecret reads a password or token from stdin, or prompts on the
// terminal with echo disabled.
func readSecret(cmd *cobra.Command, prompt string, fromStdin bool) (string, error) {
	if fromStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		secret := strings.TrimRight(string(data), "\r\n")
		if secret == "" {
			return "", fmt.Errorf("empty secret on stdin: %w", apierrors.ErrInvalidInput)
		}
		return secret, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available for an interactive prompt (pipe the secret and use the -stdin flag): %w", apierrors.ErrInvalidInput)
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(data), nil
}

func init() {
	contextSetCmd.Flags().StringVar(&contextURL, "url", "", "registry URL")
	contextSetCmd.Flags().BoolVar(&contextMakeCurrent, "current", false, "make this the current context")
	contextShowCmd.Flags().BoolVar(&contextShowSecrets, "show-secrets", false, "show passwords and tokens")

	contextLoginBasicCmd.Flags().StringVar(&loginUsername, "username", "", "registry username")
	contextLoginBasicCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	_ = contextLoginBasicCmd.MarkFlagRequired("username")

	contextLoginOIDCCmd.Flags().StringVar(&oidcIssuerURL, "issuer-url", "", "OpenID Connect issuer URL")
	contextLoginOIDCCmd.Flags().StringVar(&oidcClientID, "client-id", "", "OpenID Connect client ID")
	contextLoginOIDCCmd.Flags().StringVar(&oidcRefresh, "refresh-token", "", "refresh token to store alongside the access token")
	contextLoginOIDCCmd.Flags().DurationVar(&oidcExpiresIn, "expires-in", 0, "lifetime of the access token (0 means unknown)")
	contextLoginOIDCCmd.Flags().BoolVar(&oidcTokenStdin, "token-stdin", false, "read the access token from stdin")
	_ = contextLoginOIDCCmd.MarkFlagRequired("issuer-url")
	_ = contextLoginOIDCCmd.MarkFlagRequired("client-id")

	contextLoginCmd.AddCommand(contextLoginBasicCmd, contextLoginOIDCCmd)
	contextCmd.AddCommand(contextCurrentCmd, contextInitCmd, contextSetCmd, contextShowCmd, contextLoginCmd)
	rootCmd.AddCommand(contextCmd)
}
