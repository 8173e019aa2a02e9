package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/e-XpertSolutions/go-pwsafe/pwsafe"
	"github.com/sirupsen/logrus"
)

func usage() {
	fmt.Fprint(os.Stderr, "Gopwsafe is command line tool to manage Password Safe V3 databases.\n\n")
	fmt.Fprint(os.Stderr, "Usage:\n\n\tgopwsafe [FLAGS] [COMMAND] [ARGS...]\n\n")
	fmt.Fprint(os.Stderr, `The commands are:

new    create a new empty database. The password is asked twice.
passwd change the password of an existing database.
add    add a new entry. Group, title, username, password and notes are
       read from the standard input; an empty group is left out.
list   display the names of all entries, or of the entries matching the
       optional [REGEXP] argument. Matching ignores case.
show   print every field of the entries matching [REGEXP].

Example:

	$ echo -n bogus12345 | gopwsafe -p ./simple.psafe3 -S list '\.test'
	Test.Test One
	Test.Test Nine
	Test.Test One

The global flags are:`)
	fmt.Fprint(os.Stderr, "\n\n")
	flag.PrintDefaults()
	os.Exit(1)
}

// version
const (
	major = "1"
	minor = "0"
	patch = "0"
)

// printVersion prints the current version of the program and then exits.
func printVersion() {
	fmt.Printf("gopwsafe v%s.%s.%s\n", major, minor, patch)
	os.Exit(0)
}

func defaultPath() string {
	if p := os.Getenv("PWSAFE_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "default.psafe3"
	}
	return filepath.Join(home, ".pwsafe", "default.psafe3")
}

// Command line flags.
var (
	dbPath     string
	stdin      bool
	iterations = flag.Uint("iter", uint(pwsafe.DefaultIterations), "stretching `rounds` of a new database")
	verbose    = flag.Bool("v", false, "print debug traces")
	version    = flag.Bool("version", false, "print version")
)

func init() {
	flag.StringVar(&dbPath, "p", defaultPath(), "`path` to the database (shorthand)")
	flag.StringVar(&dbPath, "db-path", defaultPath(), "`path` to the database, $PWSAFE_DB if set")
	flag.BoolVar(&stdin, "S", false, "read passwords from the standard input (shorthand)")
	flag.BoolVar(&stdin, "stdin", false, "read passwords from the standard input")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		printVersion()
	}
	if flag.NArg() < 1 {
		usage()
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	source := sourceTerminal
	if stdin {
		source = sourceStdin
	}

	a := &app{
		path: dbPath,
		opts: &pwsafe.Options{
			Iterations: uint32(*iterations),
			Logger:     logger,
		},
		prompt: newPrompter(source, os.Stdin, os.Stdout),
		out:    os.Stdout,
	}
	if err := a.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Fatal(err)
	}
}
