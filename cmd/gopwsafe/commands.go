package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/e-XpertSolutions/go-pwsafe/pwsafe"
	"github.com/pkg/errors"
)

// app runs the commands against a single database file.
type app struct {
	path   string
	opts   *pwsafe.Options
	prompt *prompter
	out    io.Writer
}

func (a *app) run(cmd string, args []string) error {
	switch cmd {
	case "new":
		return a.create()
	case "passwd":
		return a.passwd()
	case "add":
		return a.add()
	case "list":
		return a.list(args)
	case "show":
		return a.show(args)
	}
	return errors.Errorf("unknown command %q", cmd)
}

func (a *app) open() (*pwsafe.Database, string, error) {
	password, err := a.prompt.password("Password: ")
	if err != nil {
		return nil, "", err
	}
	db, err := pwsafe.Open(a.path, password, a.opts)
	if err != nil {
		return nil, "", err
	}
	return db, password, nil
}

// newPassword asks for a password twice.
func (a *app) newPassword(query string) (string, error) {
	password, err := a.prompt.password(query + ": ")
	if err != nil {
		return "", err
	}
	again, err := a.prompt.password("Retype " + strings.ToLower(query) + ": ")
	if err != nil {
		return "", err
	}
	if password != again {
		return "", errors.New("passwords don't match")
	}
	return password, nil
}

func (a *app) create() error {
	if _, err := os.Stat(a.path); err == nil {
		return errors.Errorf("database %q already exists", a.path)
	}
	password, err := a.newPassword("Password")
	if err != nil {
		return err
	}
	return pwsafe.New(a.path, a.opts).Save(password)
}

func (a *app) passwd() error {
	current, err := a.prompt.password("Current password: ")
	if err != nil {
		return err
	}
	password, err := a.newPassword("New password")
	if err != nil {
		return err
	}
	db, err := pwsafe.Open(a.path, current, a.opts)
	if err != nil {
		return err
	}
	return db.Save(password)
}

func (a *app) add() error {
	db, password, err := a.open()
	if err != nil {
		return err
	}

	answers := make(map[pwsafe.Kind]string)
	for _, k := range []pwsafe.Kind{
		pwsafe.KindGroup,
		pwsafe.KindTitle,
		pwsafe.KindUsername,
		pwsafe.KindPassword,
		pwsafe.KindNotes,
	} {
		v, err := a.prompt.ask(k.String())
		if err != nil {
			return err
		}
		answers[k] = v
	}

	it := pwsafe.NewItem()
	for k, v := range answers {
		if k == pwsafe.KindGroup && v == "" {
			continue
		}
		if err := it.Insert(k, pwsafe.Text(v)); err != nil {
			return err
		}
	}
	if err := db.Insert(it); err != nil {
		return err
	}
	return db.Save(password)
}

func (a *app) list(args []string) error {
	db, _, err := a.open()
	if err != nil {
		return err
	}
	return db.EachMatching(strings.Join(args, ""), func(name string, _ *pwsafe.Item) {
		fmt.Fprintln(a.out, name)
	})
}

func (a *app) show(args []string) error {
	if len(args) == 0 {
		return errors.New("show requires a name pattern")
	}
	db, _, err := a.open()
	if err != nil {
		return err
	}
	return db.EachMatching(strings.Join(args, ""), func(name string, it *pwsafe.Item) {
		fmt.Fprintf(a.out, "%s:\n", name)
		for _, k := range it.Kinds() {
			if k == pwsafe.KindUUID {
				continue
			}
			v, _ := it.Get(k)
			fmt.Fprintf(a.out, "\t%s: %s\n", k, v)
		}
		fmt.Fprintln(a.out)
	})
}
