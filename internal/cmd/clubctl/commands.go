package clubctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-command"
	signup "github.com/goliatone/go-signup"
	"github.com/goliatone/go-signup/apitest"
)

func (a *app) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "activities":
		return a.dispatch(ctx, signup.LoadCatalogMessage{}, a.catalogError)
	case "login":
		email, password, err := credentials("login", args, a.stderr)
		if err != nil {
			return err
		}
		if err := a.dispatch(ctx, signup.LoginMessage{Email: email, Password: password}, nil); err != nil {
			return err
		}
		return a.gate.RenderGate(a.ctrl.Gate())
	case "logout":
		if a.session.Token() == "" {
			fmt.Fprintln(a.stderr, "Not logged in.")
			return nil
		}
		return a.dispatch(ctx, signup.LogoutMessage{}, nil)
	case "register":
		email, password, err := credentials("register", args, a.stderr)
		if err != nil {
			return err
		}
		return a.dispatch(ctx, signup.RegisterMessage{Email: email, Password: password}, nil)
	case "whoami", "dashboard":
		return a.gate.RenderGate(a.ctrl.Gate())
	case "signup", "unregister":
		email, activity, err := rosterArgs(name, args, a.stderr)
		if err != nil {
			return err
		}
		var msg command.Message = signup.SignupMessage{Email: email, Activity: activity}
		if name == "unregister" {
			msg = signup.UnregisterMessage{Email: email, Activity: activity}
		}
		return a.dispatch(ctx, msg, nil)
	case "html":
		if err := a.gate.RenderGate(a.ctrl.Gate()); err != nil {
			return err
		}
		return a.dispatch(ctx, signup.LoadCatalogMessage{}, a.catalogError)
	default:
		fmt.Fprint(a.stderr, usage)
		return ErrUsage
	}
}

// dispatch runs msg; errors were already shown through the notifier.
func (a *app) dispatch(ctx context.Context, msg command.Message, check func() error) error {
	if err := a.ctrl.Dispatch(ctx, msg); err != nil {
		return errors.Join(ErrReported, err)
	}
	if check != nil {
		return check()
	}
	return nil
}

// catalogError turns an inline catalog failure into a non-zero exit.
func (a *app) catalogError() error {
	if a.roster.Catalog() == nil {
		return ErrReported
	}
	return nil
}

func credentials(name string, args []string, stderr io.Writer) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return "", "", ErrUsage
	}

	rest := fs.Args()
	if *email == "" && len(rest) > 0 {
		*email, rest = rest[0], rest[1:]
	}
	if *password == "" && len(rest) > 0 {
		*password = rest[0]
	}
	return *email, *password, nil
}

func rosterArgs(name string, args []string, stderr io.Writer) (string, string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	email := fs.String("email", "", "Participant email, defaults to the logged in user")
	if err := fs.Parse(args); err != nil {
		return "", "", ErrUsage
	}

	activity := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if activity == "" {
		fmt.Fprintf(stderr, "usage: clubctl %s [-email E] <activity>\n", name)
		return "", "", ErrUsage
	}
	return *email, activity, nil
}

func serve(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8000", "Listen address")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	srv := apitest.New()
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()

	fmt.Fprintf(stdout, "serving signup backend on %s\n", *addr)
	return srv.Listen(*addr)
}
