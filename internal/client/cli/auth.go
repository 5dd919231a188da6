package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lifevault/internal/client/services"
	"github.com/dmitrijs2005/lifevault/internal/common"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

var errPINMismatch = errors.New("PINs do not match")

// readPIN reads a PIN without echo on a terminal and as a plain line
// otherwise.
func (a *App) readPIN(prompt string) (string, error) {
	if a.stdinFd >= 0 && isTerminal(a.stdinFd) {
		pw, err := getPassword(a.out, prompt)
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(pw)
		return string(pw), nil
	}
	return a.ask(prompt)
}

// Setup asks for a new PIN twice and stores it. Only valid before a PIN
// exists.
func (a *App) Setup(ctx context.Context, _ []string) error {
	if a.state() != services.AwaitingSetup {
		return errors.New("a PIN is already set; use 'unlock'")
	}

	pin, err := a.readPIN("Choose a PIN (at least 4 characters)")
	if err != nil {
		return err
	}
	again, err := a.readPIN("Repeat the PIN")
	if err != nil {
		return err
	}
	if pin != again {
		return errPINMismatch
	}

	return a.vault.Gate.SetCredential(ctx, pin)
}

// Unlock asks for the PIN and opens the vault when it matches.
func (a *App) Unlock(ctx context.Context, _ []string) error {
	switch a.state() {
	case services.Unlocked:
		a.println("Already unlocked.")
		return nil
	case services.AwaitingSetup:
		return errors.New("no PIN is set; use 'setup'")
	}

	pin, err := a.readPIN("Enter PIN")
	if err != nil {
		return err
	}
	ok, err := a.vault.Gate.Unlock(ctx, pin)
	if err != nil {
		return err
	}
	if !ok {
		a.println(Error.Sprint("Wrong PIN."))
	}
	return nil
}

func (a *App) Lock(ctx context.Context, _ []string) error {
	a.vault.Gate.Lock(ctx)
	return nil
}

// Wipe erases every record and the PIN after confirmation.
func (a *App) Wipe(ctx context.Context, _ []string) error {
	ok, err := a.confirm(ctx, "This permanently deletes ALL data and the PIN. Continue?")
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrCancelled
	}
	return a.vault.Gate.WipeAll(ctx)
}
