// Package cli implements deskctl, the terminal client of the records API.
package cli

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/contractor-desk/contractor-desk/internal/backend"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/contractors"
	"github.com/contractor-desk/contractor-desk/internal/masterdata/suppliers"
	"github.com/contractor-desk/contractor-desk/internal/session"
	"github.com/contractor-desk/contractor-desk/internal/shared"
)

// Config is read from DESK_* environment variables; flags override it.
type Config struct {
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:5000/api"`
	SessionFile string        `envconfig:"SESSION_FILE"`
	APITimeout  time.Duration `envconfig:"API_TIMEOUT" default:"15s"`
}

// LoadConfig reads the DESK_ environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("desk", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// runtime is what every subcommand works with once flags are parsed.
type runtime struct {
	out    io.Writer
	errOut io.Writer
	cfg    Config
	store  *session.FileStore
	client *backend.Client
	conn   *backend.Conn
}

// NewRootCommand assembles the deskctl command tree.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	rt := &runtime{out: out, errOut: errOut}
	var verbose bool

	root := &cobra.Command{
		Use:           "deskctl",
		Short:         "Manage contractors and suppliers from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.init(cmd, verbose)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("api-url", "", "records API base URL (env DESK_API_URL)")
	flags.String("session-file", "", "where the session token is kept (env DESK_SESSION_FILE)")
	flags.Duration("timeout", 0, "records API timeout (env DESK_API_TIMEOUT)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every API call")

	root.AddCommand(
		newLoginCommand(rt),
		newRegisterCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newSectionCommand(rt, contractors.Descriptor, contractors.NewClient),
		newSectionCommand(rt, suppliers.Descriptor, suppliers.NewClient),
	)
	return root
}

func (rt *runtime) init(cmd *cobra.Command, verbose bool) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v, _ := flags.GetString("session-file"); v != "" {
		cfg.SessionFile = v
	}
	if v, _ := flags.GetDuration("timeout"); v > 0 {
		cfg.APITimeout = v
	}
	if cfg.SessionFile == "" {
		cfg.SessionFile = session.DefaultFilePath()
	}
	rt.cfg = cfg

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(rt.errOut, &slog.HandlerOptions{Level: level}))

	rt.store = session.NewFileStore(cfg.SessionFile)
	rt.client = backend.NewClient(cfg.APIURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		backend.WithLogger(logger),
	)
	rt.conn = rt.client.Bind(rt.store)
	return nil
}

// requireLogin fails fast when no token is stored.
func (rt *runtime) requireLogin() error {
	if !session.Authenticated(rt.store) {
		return errNotLoggedIn
	}
	return nil
}

var errNotLoggedIn = errors.New("not logged in, run `deskctl login` first")

// Message turns a command error into the line printed on stderr.
func Message(err error) string {
	if errors.Is(err, shared.ErrSessionExpired) {
		return "session expired, run `deskctl login` again"
	}
	return shared.UserMessage(err, err.Error())
}
