package pwsafe

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/twofish"
)

// length (4 bytes) + tag (1 byte)
const fieldHeaderSize = 5

// Data is the decoded value of a field. Its concrete type is one of Raw,
// Byte, Short, Int or Text.
type Data interface {
	Type() Type
	String() string
	payload() []byte
}

// Raw is an opaque byte string.
type Raw []byte

// Byte is a one byte integer.
type Byte uint8

// Short is a little-endian two bytes integer.
type Short uint16

// Int is a little-endian four bytes integer.
type Int uint32

// Text is an UTF-8 string.
type Text string

func (Raw) Type() Type   { return TypeRaw }
func (Byte) Type() Type  { return TypeByte }
func (Short) Type() Type { return TypeShort }
func (Int) Type() Type   { return TypeInt }
func (Text) Type() Type  { return TypeText }

func (v Raw) String() string   { return hex.EncodeToString(v) }
func (v Byte) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v Short) String() string { return strconv.FormatUint(uint64(v), 10) }
func (v Int) String() string   { return strconv.FormatUint(uint64(v), 10) }
func (v Text) String() string  { return string(v) }

func (v Raw) payload() []byte {
	return append([]byte(nil), v...)
}

func (v Byte) payload() []byte {
	return []byte{byte(v)}
}

func (v Short) payload() []byte {
	return binary.LittleEndian.AppendUint16(nil, uint16(v))
}

func (v Int) payload() []byte {
	return binary.LittleEndian.AppendUint32(nil, uint32(v))
}

func (v Text) payload() []byte {
	return []byte(v)
}

// A Field is a decoded (definition, value) pair. Fields of unknown kind keep
// the tag they were read with so that they can be written back unchanged.
type Field struct {
	Def  Def
	Data Data
	tag  byte
}

var endField = Field{Def: Def{Kind: KindEnd, Type: TypeRaw}, Data: Raw(nil)}

func padding(n int) int {
	return (twofish.BlockSize - (fieldHeaderSize+n)%twofish.BlockSize) % twofish.BlockSize
}

func decodeData(def Def, b []byte) (Data, error) {
	switch def.Type {
	case TypeRaw:
		return Raw(append([]byte(nil), b...)), nil
	case TypeByte:
		if len(b) < 1 {
			return nil, errors.Wrapf(ErrCorruptRecord, "%s field is empty", def.Kind)
		}
		return Byte(b[0]), nil
	case TypeShort:
		if len(b) < 2 {
			return nil, errors.Wrapf(ErrCorruptRecord, "%s field has %d bytes; want 2", def.Kind, len(b))
		}
		return Short(binary.LittleEndian.Uint16(b)), nil
	case TypeInt:
		if len(b) < 4 {
			return nil, errors.Wrapf(ErrCorruptRecord, "%s field has %d bytes; want 4", def.Kind, len(b))
		}
		return Int(binary.LittleEndian.Uint32(b)), nil
	case TypeText:
		return Text(strings.ToValidUTF8(string(b), "\uFFFD")), nil
	}
	return nil, errors.Wrapf(ErrCorruptRecord, "%s field has unsupported type %s", def.Kind, def.Type)
}

// parseField reads the next field from r. It returns io.EOF if r is exhausted
// before the field starts.
func parseField(r *bytes.Reader, c *Catalog, mac *authenticator) (Field, error) {
	var hdr [fieldHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return Field{}, io.EOF
		}
		return Field{}, errors.Wrap(ErrCorruptRecord, "truncated field header")
	}
	length := binary.LittleEndian.Uint32(hdr[:4])
	tag := hdr[4]

	if uint64(length) > uint64(r.Len()) {
		return Field{}, errors.Wrapf(ErrCorruptRecord, "field %#02x announces %d bytes, %d left", tag, length, r.Len())
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return Field{}, errors.Wrapf(ErrCorruptRecord, "cannot read field %#02x", tag)
	}
	mac.update(b)

	pad := padding(len(b))
	if pad > r.Len() {
		return Field{}, errors.Wrapf(ErrCorruptRecord, "field %#02x padding is truncated", tag)
	}
	if _, err := r.Seek(int64(pad), io.SeekCurrent); err != nil {
		return Field{}, errors.Wrapf(ErrCorruptRecord, "cannot skip field %#02x padding", tag)
	}

	def, ok := c.Lookup(tag)
	if !ok {
		return Field{Def: Def{Kind: KindUnknown, Type: TypeRaw}, Data: Raw(b), tag: tag}, nil
	}
	data, err := decodeData(def, b)
	wipe(b)
	if err != nil {
		return Field{}, err
	}
	return Field{Def: def, Data: data, tag: tag}, nil
}

// serializeField appends f to w, padded with zeros to the cipher block size.
func serializeField(w *bytes.Buffer, c *Catalog, f Field, mac *authenticator) error {
	tag := f.tag
	if f.Def.Kind != KindUnknown {
		def, ok := c.Def(f.Def.Kind)
		if !ok {
			return errors.Wrapf(ErrUnknownKind, "%s has no tag in the %s catalog", f.Def.Kind, c)
		}
		if f.Data == nil || f.Data.Type() != def.Type {
			return errors.Wrapf(ErrTypeMismatch, "%s field expects %s data", def.Kind, def.Type)
		}
		tag, _ = c.Tag(f.Def.Kind)
	} else if f.Data == nil {
		return errors.Wrapf(ErrTypeMismatch, "unknown field %#02x has no data", tag)
	}

	b := f.Data.payload()
	defer wipe(b)
	if uint64(len(b)) > math.MaxUint32 {
		return errors.Errorf("field %s is too large: %d bytes", f.Def.Kind, len(b))
	}
	mac.update(b)

	var hdr [fieldHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[:4], uint32(len(b)))
	hdr[4] = tag
	w.Write(hdr[:])
	w.Write(b)
	w.Write(make([]byte, padding(len(b))))
	return nil
}
