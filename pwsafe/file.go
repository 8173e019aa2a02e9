package pwsafe

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	formatTag = "PWS3"
	eofMarker = "PWS3-EOFPWS3-EOF"

	iterSize = 4
)

// file gives access to the sections of a database image held in memory.
// Reads consume the image from the front; writes append to it.
type file struct {
	buf *bytes.Buffer
}

func newFile(b []byte) *file {
	return &file{buf: bytes.NewBuffer(b)}
}

func (f *file) next(n int, what string) ([]byte, error) {
	b := f.buf.Next(n)
	if len(b) != n {
		return nil, errors.Wrapf(ErrInvalidFormat, "%s is truncated", what)
	}
	return b, nil
}

func (f *file) readTag() error {
	tag, err := f.next(len(formatTag), "tag")
	if err != nil {
		return err
	}
	if string(tag) != formatTag {
		return errors.Wrapf(ErrInvalidFormat, "unexpected tag %q", tag)
	}
	return nil
}

func (f *file) readSalt() ([]byte, error) {
	return f.next(saltSize, "salt")
}

func (f *file) readIterations() (uint32, error) {
	b, err := f.next(iterSize, "iteration count")
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (f *file) readKeyHash() ([]byte, error) {
	return f.next(keySize, "stretched key hash")
}

func (f *file) readKeyBlock() ([]byte, error) {
	return f.next(keySize, "key block")
}

func (f *file) readIV() ([]byte, error) {
	return f.next(ivSize, "iv")
}

// readData returns the encrypted records and the HMAC stored after the
// end-of-file marker. The returned slices alias the file image.
func (f *file) readData() (data, mac []byte, err error) {
	rest := f.buf.Bytes()
	idx := bytes.Index(rest, []byte(eofMarker))
	if idx == -1 {
		return nil, nil, errors.Wrap(ErrTruncatedFile, "cannot find end-of-file marker")
	}
	trailer := rest[idx+len(eofMarker):]
	if len(trailer) < macSize {
		return nil, nil, errors.Wrapf(ErrTruncatedFile, "hmac is truncated: %d bytes", len(trailer))
	}
	return rest[:idx], trailer[:macSize], nil
}

func (f *file) writeTag() {
	f.buf.WriteString(formatTag)
}

func (f *file) writeSalt(salt []byte) error {
	if len(salt) != saltSize {
		return errors.Errorf("invalid salt length %d; want %d", len(salt), saltSize)
	}
	f.buf.Write(salt)
	return nil
}

func (f *file) writeIterations(iter uint32) {
	var b [iterSize]byte
	binary.LittleEndian.PutUint32(b[:], iter)
	f.buf.Write(b[:])
}

func (f *file) writeKeyHash(h []byte) {
	f.buf.Write(h)
}

func (f *file) writeKeyBlock(b []byte) error {
	if len(b) != keySize {
		return errors.Errorf("invalid key block length %d; want %d", len(b), keySize)
	}
	f.buf.Write(b)
	return nil
}

func (f *file) writeIV(iv []byte) error {
	if len(iv) != ivSize {
		return errors.Errorf("invalid iv length %d; want %d", len(iv), ivSize)
	}
	f.buf.Write(iv)
	return nil
}

func (f *file) writeData(data, mac []byte) {
	f.buf.Write(data)
	f.buf.WriteString(eofMarker)
	f.buf.Write(mac)
}

func (f *file) bytes() []byte {
	return f.buf.Bytes()
}

// writeFileAtomic replaces path with data through a temporary file created
// in the same directory.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pwsafe-*")
	if err != nil {
		return errors.Wrap(err, "cannot create temporary file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "cannot write temporary file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "cannot sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "cannot close temporary file")
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "cannot set file permissions")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "cannot replace database file")
	}
	return nil
}
