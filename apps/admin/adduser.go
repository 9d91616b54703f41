package main

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/kenova/core"
	"github.com/trezcool/kenova/core/user"
)

// addUser updates or creates a user.User. The registration policy does not apply here.
func (cli *commandLine) addUser(email, role, pwd string, validated bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email %q", email)
	}
	r, ok := user.ParseRole(role)
	if !ok {
		return user.ErrInvalidRole
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if !exists {
		usr = user.User{Email: email, CreatedAt: now}
	}
	usr.SetRole(r)
	if validated {
		usr.MarkValidated()
	}
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now

	if exists {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "user %d: %s (%s, validated=%t)\n", usr.ID, usr.Email, usr.Role, usr.Validated)
	return nil
}
