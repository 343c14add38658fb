// Package cli implements the freshreceipt command line client.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"freshreceipt_backend/internal/client/runtime"
	"freshreceipt_backend/internal/client/securestore"
)

const (
	envAPIURL     = "FRESHRECEIPT_API_URL"
	envPassword   = "FRESHRECEIPT_PASSWORD"
	defaultAPIURL = "http://localhost:8080"
)

type options struct {
	apiURL    string
	configDir string
	ephemeral bool
	timeout   time.Duration
}

// app is shared by every subcommand. rt is built in PersistentPreRunE.
type app struct {
	opts options
	rt   *runtime.Runtime
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "freshreceipt",
		Short: "Track household groceries from the command line",
		Long: `freshreceipt signs in to a FreshReceipt server, keeps the session and the
selected household in local secure storage and scopes every request to it.

Examples:
  freshreceipt signup --email jane@example.com --password s3cretpass
  freshreceipt households list
  freshreceipt items add milk --price 1.99 --expires 2026-03-10
  freshreceipt receipts upload receipt.jpg`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.rt != nil {
				a.rt.Close()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	apiURL := os.Getenv(envAPIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	f := root.PersistentFlags()
	f.StringVar(&a.opts.apiURL, "api-url", apiURL, "server base URL (env "+envAPIURL+")")
	f.StringVar(&a.opts.configDir, "config-dir", "", "directory for persisted credentials (default: user config dir)")
	f.BoolVar(&a.opts.ephemeral, "ephemeral", false, "keep credentials in memory only")
	f.DurationVar(&a.opts.timeout, "timeout", 15*time.Second, "per-request timeout")

	root.AddCommand(
		a.signupCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.householdsCmd(),
		a.itemsCmd(),
		a.receiptsCmd(),
	)
	return root
}

func (a *app) storage() (securestore.Store, error) {
	switch {
	case a.opts.ephemeral:
		return securestore.NewMemoryStore(), nil
	case a.opts.configDir != "":
		return securestore.NewFileStore(afero.NewOsFs(), a.opts.configDir), nil
	default:
		return securestore.NewDefaultFileStore()
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	store, err := a.storage()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	rt, err := runtime.New(runtime.Options{
		BaseURL:     a.opts.apiURL,
		Storage:     store,
		HTTPTimeout: a.opts.timeout,
	})
	if err != nil {
		return err
	}
	rt.Init(cmd.Context())
	a.rt = rt
	return nil
}

var errNoHousehold = errors.New("no household selected; run 'freshreceipt households select <id>'")

// household returns the household scoped commands run against.
func (a *app) household() (uuid.UUID, error) {
	id, ok := a.rt.Households.Current()
	if !ok {
		return uuid.Nil, errNoHousehold
	}
	return id, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// password prefers the flag and falls back to the environment.
func password(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("password")
	if p == "" {
		p = os.Getenv(envPassword)
	}
	if p == "" {
		return "", fmt.Errorf("--password (or %s) is required", envPassword)
	}
	return p, nil
}
