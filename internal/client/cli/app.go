// Package cli implements walletctl, a terminal client of the wallet auth API.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"wallet/internal/client/api"
	"wallet/internal/client/session"
	domainerrors "wallet/internal/domain/errors"
	"wallet/internal/errors"
)

// Supported subcommands:
// - register: create an account and sign in
// - login:    sign in
// - logout:   sign out locally and on the server
// - status:   show the stored session after checking it with the server
// - profile:  show the signed-in account
// - health:   show the server health report

// ErrUsage reports an unknown subcommand or bad flags.
var ErrUsage = errors.New("usage")

// HealthChecker reports server health.
type HealthChecker interface {
	Health(ctx context.Context) (*api.Health, error)
}

// App runs one walletctl subcommand.
type App struct {
	session *session.Manager
	health  HealthChecker
	in      *bufio.Reader
	out     io.Writer
}

// NewApp wires a session manager to the given terminal streams.
func NewApp(mgr *session.Manager, health HealthChecker, in io.Reader, out io.Writer) *App {
	return &App{
		session: mgr,
		health:  health,
		in:      bufio.NewReader(in),
		out:     out,
	}
}

// Run restores the stored session and executes args[0] with the remaining flags.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.printUsage()

		return ErrUsage
	}

	if err := a.session.Restore(ctx); err != nil {
		return err
	}

	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		return a.logout(ctx)
	case "status":
		return a.status(ctx)
	case "profile":
		return a.profile(ctx)
	case "health":
		return a.checkHealth(ctx)
	default:
		a.printUsage()

		return errors.WithMessagef(ErrUsage, "unknown command %q", args[0])
	}
}

func (a *App) printUsage() {
	fmt.Fprintln(a.out, "Usage: walletctl <command> [flags]")
	fmt.Fprintln(a.out, "Commands: register, login, logout, status, profile, health")
}

func (a *App) parseEmail(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return "", errors.WithMessage(ErrUsage, err.Error())
	}

	if *email != "" {
		return *email, nil
	}

	return readLine(a.in, a.out, "Email: ")
}

func (a *App) register(ctx context.Context, args []string) error {
	email, err := a.parseEmail("register", args)
	if err != nil {
		return err
	}
	password, err := readSecret(a.out, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readSecret(a.out, "Confirm password: ")
	if err != nil {
		return err
	}

	state, err := a.session.Register(ctx, email, password, confirm)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Registered and signed in as %s\n", state.Email)

	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, err := a.parseEmail("login", args)
	if err != nil {
		return err
	}
	password, err := readSecret(a.out, "Password: ")
	if err != nil {
		return err
	}

	state, err := a.session.Login(ctx, email, password)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", state.Email)

	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")

	return nil
}

func (a *App) status(ctx context.Context) error {
	if a.session.State().IsAuthenticated {
		a.session.Validate(ctx)
	}

	state := a.session.State()
	if !state.IsAuthenticated {
		fmt.Fprintln(a.out, "Not signed in")

		return nil
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", state.Email, state.AccountID)

	return nil
}

func (a *App) profile(ctx context.Context) error {
	user, err := a.session.Profile(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "ID:      %s\nEmail:   %s\nCreated: %s\n", user.ID, user.Email, user.CreatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func (a *App) checkHealth(ctx context.Context) error {
	health, err := a.health.Health(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "%s %s %s (%s)\n", health.Service, health.Version, health.Status, health.Timestamp.Format(time.RFC3339))

	return nil
}

// describe turns a server error into the message and field details a user can act on.
func describe(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	msg := apiErr.Message
	var fields []domainerrors.FieldError
	if len(apiErr.Details) > 0 && json.Unmarshal(apiErr.Details, &fields) == nil {
		for _, f := range fields {
			msg += fmt.Sprintf("\n  %s: %s", f.Field, f.Message)
		}
	}

	return errors.New(msg)
}
