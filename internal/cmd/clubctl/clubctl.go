// Package clubctl parses clubctl flags and runs one client command per
// invocation. The persisted session is restored before every command.
package clubctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/config"
	"github.com/goliatone/go-signup/render"
	"github.com/goliatone/go-signup/tokenstore"
)

const usage = `usage: clubctl [flags] <command> [args]

commands:
  activities                      list activities and rosters
  login -email E -password P      log in and remember the session
  logout                          end the session
  register -email E -password P   create a member account
  whoami                          show the current user
  dashboard                       show the role dashboard and navigation
  signup [-email E] <activity>    sign up (defaults to the logged in user)
  unregister [-email E] <activity>
  html                            print the auth gate and catalog as HTML
  serve [-addr :8000]             run an in-memory backend for local use
`

// ErrReported marks a failure the user has already been shown.
var ErrReported = errors.New("command failed")

// ErrUsage is returned for unknown commands or missing arguments.
var ErrUsage = goerrors.New("invalid usage", goerrors.CategoryBadInput).
	WithTextCode("CLUBCTL_USAGE")

// Options holds global flags and the command line remainder.
type Options struct {
	ConfigPath string
	EnvFile    string
	BaseURL    string
	Store      string
	TokenPath  string
	JSON       bool
	Debug      bool

	Command string
	Args    []string

	// HTTPDoer replaces the HTTP transport. Not settable from flags.
	HTTPDoer signup.HTTPDoer
}

// ParseArgs parses global flags from args.
func ParseArgs(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "clubctl.yaml", "Optional YAML config file")
	fs.StringVar(&opts.EnvFile, "env", ".env", "Optional .env file")
	fs.StringVar(&opts.BaseURL, "base-url", "", "Backend base URL (overrides config)")
	fs.StringVar(&opts.Store, "store", "", "Token store: memory, file, bolt or sqlite")
	fs.StringVar(&opts.TokenPath, "token-path", "", "Token store location")
	fs.BoolVar(&opts.JSON, "json", false, "Print JSON instead of text")
	fs.BoolVar(&opts.Debug, "debug", false, "Log client diagnostics to stderr")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.Command = strings.ToLower(rest[0])
		opts.Args = rest[1:]
	}
	return opts, nil
}

// Run executes opts.Command.
func Run(ctx context.Context, opts Options, stdout, stderr io.Writer) error {
	switch opts.Command {
	case "":
		fmt.Fprint(stderr, usage)
		return ErrUsage
	case "serve":
		return serve(ctx, opts.Args, stdout)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	store, err := tokenstore.Open(ctx, cfg.TokenStore, cfg.ResolveTokenPath(), cfg.StorageKey)
	if err != nil {
		return err
	}
	defer store.Close()

	a := newApp(cfg, opts, store, stdout, stderr)
	a.session.Restore(ctx)

	return a.run(ctx, opts.Command, opts.Args)
}

func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return cfg, err
	}

	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Store != "" {
		cfg.TokenStore = strings.ToLower(opts.Store)
	}
	if opts.TokenPath != "" {
		cfg.TokenPath = opts.TokenPath
	}
	if opts.Debug {
		cfg.Debug = true
	}
	return cfg, cfg.Validate()
}

type app struct {
	ctrl     *signup.Controller
	session  *signup.SessionStore
	roster   *signup.RosterView
	gate     signup.GateRenderer
	stderr   io.Writer
	jsonMode bool
}

func newApp(cfg config.Config, opts Options, tokens signup.TokenStore, stdout, stderr io.Writer) *app {
	var logger signup.Logger = signup.NopLogger{}
	if cfg.Debug {
		logger = newWriterLogger(stderr)
	}

	clientOpts := []signup.ClientOption{signup.WithClientLogger(logger)}
	if opts.HTTPDoer != nil {
		clientOpts = append(clientOpts, signup.WithHTTPDoer(opts.HTTPDoer))
	}
	client := signup.NewClientFromConfig(cfg, clientOpts...)

	var (
		display signup.NotificationDisplay = render.NewNotice(stdout)
		gate    signup.GateRenderer        = render.NewText(stdout)
		roster  signup.RosterRenderer
	)
	if opts.JSON {
		out := jsonOutput{w: stdout}
		display, gate = out, out
	}

	switch opts.Command {
	case "activities":
		roster = render.NewText(stdout)
		if opts.JSON {
			roster = jsonOutput{w: stdout}
		}
	case "html":
		html := render.NewHTML(stdout)
		roster, gate = html, html
	}

	notifier := signup.NewNotifier(
		signup.WithNotificationTTL(cfg.GetNotificationTTL()),
		signup.WithNotificationDisplay(display),
		signup.WithNotifierLogger(logger),
	)
	session := signup.NewSessionStore(client, tokens, signup.WithSessionLogger(logger))
	rosterView := signup.NewRosterView(client, session, notifier,
		signup.WithRosterRenderer(roster),
		signup.WithRosterLogger(logger),
	)

	return &app{
		ctrl:     signup.NewController(session, rosterView, notifier, signup.WithControllerLogger(logger)),
		session:  session,
		roster:   rosterView,
		gate:     gate,
		stderr:   stderr,
		jsonMode: opts.JSON,
	}
}
