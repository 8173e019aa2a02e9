package pwsafe

import "github.com/pkg/errors"

// Errors returned while opening or saving a database. Use errors.Cause to
// compare a returned error against them.
var (
	// ErrInvalidFormat is returned when the file does not start with the PWS3
	// tag or when its fixed-size prelude is truncated.
	ErrInvalidFormat = errors.New("invalid database format")

	// ErrTruncatedFile is returned when the end-of-file marker or the
	// authentication tag that follows it cannot be found.
	ErrTruncatedFile = errors.New("truncated database file")

	// ErrWrongPassword is returned when the stretched password does not match
	// the stored hash. A corrupted salt, iteration count or hash produces the
	// same error.
	ErrWrongPassword = errors.New("invalid password")

	// ErrAuthentication is returned when the HMAC computed over the decrypted
	// records does not match the one stored in the file.
	ErrAuthentication = errors.New("cannot verify database integrity")

	// ErrCrypto is returned when a cipher cannot be initialized or its input is
	// not block aligned.
	ErrCrypto = errors.New("cryptographic failure")

	// ErrCorruptRecord is returned when a field cannot be decoded.
	ErrCorruptRecord = errors.New("corrupted record")

	// ErrHeaderMissing is returned when the decrypted body holds no header
	// record.
	ErrHeaderMissing = errors.New("missing header record")

	// ErrUnknownKind is returned when a field kind has no tag in the catalog
	// used to encode it.
	ErrUnknownKind = errors.New("unknown field kind")

	// ErrTypeMismatch is returned by Item.Insert when the value does not have
	// the type the catalog defines for the field kind.
	ErrTypeMismatch = errors.New("field type mismatch")
)
