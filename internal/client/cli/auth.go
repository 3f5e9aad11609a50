package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/strongholder/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// signup asks for a username and a password typed twice and creates the
// account. The new session is stored on success.
func (a *App) signup(ctx context.Context, _ []string) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return errPasswordMismatch
	}

	if err := a.authService.Signup(ctx, userName, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

func (a *App) signin(ctx context.Context, _ []string) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Signin(ctx, userName, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Signed in as", userName)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	s, err := a.authService.Whoami(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s), session valid until %s\n", s.Username, s.UserID, s.ExpiresAt.Format(time.RFC3339))
	return nil
}
