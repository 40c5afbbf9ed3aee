// Package admin implements the operator commands of the accounts CLI:
// creating pre-verified accounts, verifying and deleting accounts by
// email and applying schema migrations.
package admin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/swengineer/internal/common"
	"github.com/dmitrijs2005/swengineer/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/swengineer/internal/server/services"
)

var ErrUsage = errors.New("usage: accounts [flags] create [email] | verify <email> | delete [-y] <email> | migrate")

var errPasswordMismatch = errors.New("passwords do not match")

type App struct {
	accounts *services.AccountService
	store    repomanager.RepositoryManager
	reader   *bufio.Reader
	out      io.Writer
	// assumeYes skips the delete confirmation.
	assumeYes bool
}

func NewApp(accounts *services.AccountService, store repomanager.RepositoryManager, in io.Reader, out io.Writer) *App {
	return &App{accounts: accounts, store: store, reader: bufio.NewReader(in), out: out}
}

// AssumeYes answers confirmation prompts with yes.
func (a *App) AssumeYes(v bool) { a.assumeYes = v }

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "create":
		return a.create(ctx, rest)
	case "verify":
		return a.verify(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "migrate":
		return a.migrate(ctx)
	case "help":
		fmt.Fprintln(a.out, ErrUsage.Error())
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}

func (a *App) create(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = GetSimpleText(a.reader, "Email", a.out); err != nil {
			return err
		}
	}

	pw, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	again, err := GetPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		return errPasswordMismatch
	}

	account, err := a.accounts.CreateVerified(ctx, email, string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created %s (%s)\n", account.Email, account.ID)
	return nil
}

func (a *App) verify(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	account, err := a.accounts.MarkVerified(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "verified %s\n", account.Email)
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	email := args[0]

	if !a.assumeYes {
		ok, err := Confirm(a.reader, "Delete "+email+"?", a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "aborted")
			return nil
		}
	}

	if err := a.accounts.DeleteByEmail(ctx, email); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", email)
	return nil
}

func (a *App) migrate(ctx context.Context) error {
	if err := a.store.RunMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}
