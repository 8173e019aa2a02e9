package pwsafe

import (
	"crypto/rand"
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultIterations is the number of stretching rounds used for new
// databases.
const DefaultIterations uint32 = 100000

// Options configures a Database. A nil *Options is equivalent to
// DefaultOptions().
type Options struct {
	// Iterations is the stretching round count of a new database. It is
	// ignored by Open, which uses the count stored in the file.
	Iterations uint32

	// Logger receives debug traces. Secret material is never logged.
	Logger *logrus.Logger

	// Rand is the source of salts, keys and IVs. It must be a
	// cryptographically secure generator outside of tests.
	Rand io.Reader
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() *Options {
	return &Options{
		Iterations: DefaultIterations,
		Logger:     logrus.New(),
		Rand:       rand.Reader,
	}
}

func (o *Options) withDefaults() Options {
	def := DefaultOptions()
	if o == nil {
		return *def
	}
	opts := *o
	if opts.Iterations == 0 {
		opts.Iterations = def.Iterations
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	if opts.Rand == nil {
		opts.Rand = def.Rand
	}
	return opts
}
