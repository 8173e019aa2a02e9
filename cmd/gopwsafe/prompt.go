package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/howeyc/gopass"
	"github.com/pkg/errors"
)

// passwordSource selects where passwords are read from.
type passwordSource int

const (
	// sourceTerminal reads passwords from the terminal with echo disabled.
	sourceTerminal passwordSource = iota
	// sourceStdin reads passwords as plain lines of the standard input.
	sourceStdin
)

// prompter asks the user for passwords and entry fields.
type prompter struct {
	source passwordSource
	in     *bufio.Reader
	out    io.Writer
}

func newPrompter(source passwordSource, in io.Reader, out io.Writer) *prompter {
	return &prompter{source: source, in: bufio.NewReader(in), out: out}
}

func (p *prompter) password(query string) (string, error) {
	if p.source == sourceStdin {
		return p.line()
	}
	fmt.Fprint(p.out, query)
	b, err := gopass.GetPasswd()
	if err != nil {
		return "", errors.Wrap(err, "cannot read password")
	}
	return string(b), nil
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", question)
	return p.line()
}

// line reads one line, accepting a last line without newline.
func (p *prompter) line() (string, error) {
	s, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || s == "") {
		return "", errors.Wrap(err, "cannot read from standard input")
	}
	return strings.TrimRightFunc(s, unicode.IsSpace), nil
}
