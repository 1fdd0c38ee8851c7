// Command clientele is a terminal client manager: businesses, contacts
// and tasks in a local SQLite database, with an optional hosted account
// for the identity commands.
//
// Usage:
//
//	clientele                 start the interactive UI
//	clientele login           sign in to the hosted account
//	clientele register        create a hosted account
//	clientele logout          sign out and forget stored credentials
//	clientele reset-pass      send a password reset email
//	clientele profile         show or update the account profile
//	clientele change-pass     change the account password
//	clientele delete-account  permanently delete the hosted account
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/stewardapostol/clientele/internal/app"
	"github.com/stewardapostol/clientele/internal/credential"
	"github.com/stewardapostol/clientele/internal/identity"
	"github.com/stewardapostol/clientele/internal/model"
	"github.com/stewardapostol/clientele/internal/repository"
	"github.com/stewardapostol/clientele/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "clientele:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to the config file")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	auth := identity.NewClient(
		cfg.Identity.APIKey,
		cfg.Identity.Endpoint,
		cfg.Identity.TokenEndpoint,
		credential.Store{},
	)

	ctx := context.Background()

	switch flag.Arg(0) {
	case "login":
		return runLogin(ctx, auth)
	case "register":
		return runRegister(ctx, auth)
	case "logout":
		return auth.SignOut()
	case "reset-pass":
		return runPasswordReset(ctx, auth)
	case "profile":
		return runProfile(ctx, auth)
	case "change-pass":
		return runChangePassword(ctx, auth)
	case "delete-account":
		return runDeleteAccount(ctx, auth)
	case "":
		return runUI(ctx, cfg, auth)
	default:
		return fmt.Errorf("unknown command %q", flag.Arg(0))
	}
}

func runUI(ctx context.Context, cfg *model.AppConfig, auth *identity.Client) error {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	account := ""
	if cfg.Identity.APIKey != "" {
		if user, err := auth.CurrentUser(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "clientele: account check failed:", err)
		} else if user != nil {
			account = user.Email
		}
	}

	root, err := app.New(ctx, repository.New(s), account)
	if err != nil {
		return fmt.Errorf("starting application: %w", err)
	}

	_, err = tea.NewProgram(root, tea.WithAltScreen()).Run()
	return err
}

func runLogin(ctx context.Context, auth *identity.Client) error {
	var email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := auth.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("signing in: %w", err)
	}
	fmt.Println("Signed in as", email)
	return nil
}

func runRegister(ctx context.Context, auth *identity.Client) error {
	var name, email, password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&name),
			huh.NewInput().Title("Email").Value(&email),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := auth.SignUp(ctx, name, email, password); err != nil {
		return fmt.Errorf("creating account: %w", err)
	}
	fmt.Println("Account created for", email)
	return nil
}

func runPasswordReset(ctx context.Context, auth *identity.Client) error {
	var email string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&email),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := auth.SendPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	fmt.Println("Password reset email sent to", email)
	return nil
}

func runProfile(ctx context.Context, auth *identity.Client) error {
	user, err := auth.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if user == nil {
		return fmt.Errorf("not signed in, run clientele login first")
	}

	name, email := user.DisplayName, user.Email
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&name),
			huh.NewInput().Title("Email").Value(&email),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if name == user.DisplayName && email == user.Email {
		fmt.Println("Profile unchanged")
		return nil
	}
	if err := auth.UpdateProfile(ctx, name, email); err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	fmt.Println("Profile updated")
	return nil
}

func runChangePassword(ctx context.Context, auth *identity.Client) error {
	var current, updated string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&current),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&updated),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if err := auth.UpdatePassword(ctx, current, updated); err != nil {
		return fmt.Errorf("changing password: %w", err)
	}
	fmt.Println("Password changed")
	return nil
}

func runDeleteAccount(ctx context.Context, auth *identity.Client) error {
	var password string
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
			huh.NewConfirm().
				Title("Delete this account?").
				Description("The hosted account is removed permanently. Local data stays on disk.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled")
		return nil
	}
	if err := auth.DeleteAccount(ctx, password); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	fmt.Println("Account deleted")
	return nil
}
