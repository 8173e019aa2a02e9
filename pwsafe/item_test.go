package pwsafe

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestParseRecordSkipsUnknownTag(t *testing.T) {
	b := concat(rawField(0x42, []byte("???")), rawField(0xff, nil))

	it, err := parseRecord(bytes.NewReader(b), BodyCatalog, testMAC())
	require.NoError(t, err)
	assert.Zero(t, it.Len())
	_, ok := it.Get(KindUnknown)
	assert.False(t, ok)
	require.Len(t, it.unknown, 1)
	assert.Equal(t, byte(0x42), it.unknown[0].tag)
}

func TestParseRecordStopsAtEnd(t *testing.T) {
	b := concat(
		rawField(0x03, []byte("first")),
		rawField(0xff, nil),
		rawField(0x03, []byte("second")),
		rawField(0xff, nil),
	)
	r := bytes.NewReader(b)
	mac := testMAC()

	first, err := parseRecord(r, BodyCatalog, mac)
	require.NoError(t, err)
	second, err := parseRecord(r, BodyCatalog, mac)
	require.NoError(t, err)
	_, err = parseRecord(r, BodyCatalog, mac)
	assert.Equal(t, io.EOF, err)

	assert.Equal(t, "first", first.Name())
	assert.Equal(t, "second", second.Name())
	_, ok := first.Get(KindEnd)
	assert.False(t, ok)
}

func TestParseRecordEmpty(t *testing.T) {
	it, err := parseRecord(bytes.NewReader(rawField(0xff, nil)), BodyCatalog, testMAC())
	require.NoError(t, err)
	assert.Zero(t, it.Len())
}

func TestParseRecordUnterminated(t *testing.T) {
	b := rawField(0x03, []byte("no end"))
	_, err := parseRecord(bytes.NewReader(b), BodyCatalog, testMAC())
	assert.Equal(t, ErrCorruptRecord, errors.Cause(err))

	// an unknown field still counts as the start of a record
	b = rawField(0x42, nil)
	_, err = parseRecord(bytes.NewReader(b), BodyCatalog, testMAC())
	assert.Equal(t, ErrCorruptRecord, errors.Cause(err))
}

func TestRecordRoundTrip(t *testing.T) {
	it := NewItem()
	require.NoError(t, it.Insert(KindGroup, Text("Test")))
	require.NoError(t, it.Insert(KindTitle, Text("Test One")))
	require.NoError(t, it.Insert(KindPassword, Text("password1")))
	require.NoError(t, it.Insert(KindCreateTime, Int(1311386913)))
	require.NoError(t, it.Insert(KindDClickAction, Short(7)))
	require.NoError(t, it.Insert(KindProtected, Byte(1)))
	it.unknown = append(it.unknown, Field{Def: Def{KindUnknown, TypeRaw}, Data: Raw("https://example.com"), tag: 0x0d})

	var buf bytes.Buffer
	wmac := testMAC()
	require.NoError(t, serializeRecord(&buf, BodyCatalog, it, wmac))
	assert.Zero(t, buf.Len()%16)

	rmac := testMAC()
	got, err := parseRecord(bytes.NewReader(buf.Bytes()), BodyCatalog, rmac)
	require.NoError(t, err)
	assert.True(t, it.Equal(got))
	assert.Equal(t, it.unknown, got.unknown)
	assert.Equal(t, wmac.sum(), rmac.sum())
}

func TestSerializeRecordIsDeterministic(t *testing.T) {
	it := NewItem()
	require.NoError(t, it.Insert(KindEmail, Text("email@bogus.com")))
	require.NoError(t, it.Insert(KindTitle, Text("Test Five")))
	require.NoError(t, it.Insert(KindUsername, Text("user5")))

	var a, b bytes.Buffer
	require.NoError(t, serializeRecord(&a, BodyCatalog, it, testMAC()))
	require.NoError(t, serializeRecord(&b, BodyCatalog, it, testMAC()))
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, []Kind{KindTitle, KindUsername, KindEmail}, it.Kinds())
}

func TestItemInsert(t *testing.T) {
	it := NewItem()

	err := it.Insert(KindTitle, Int(3))
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	err = it.Insert(KindVersion, Short(0x030d))
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))

	err = it.Insert(KindEnd, Raw(nil))
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))

	err = it.Insert(KindNotes, nil)
	assert.Equal(t, ErrTypeMismatch, errors.Cause(err))

	require.NoError(t, it.Insert(KindTitle, Text("old")))
	require.NoError(t, it.Insert(KindTitle, Text("new")))
	title, ok := it.Text(KindTitle)
	assert.True(t, ok)
	assert.Equal(t, "new", title)
	assert.Equal(t, 1, it.Len())

	it.Delete(KindTitle)
	_, ok = it.Get(KindTitle)
	assert.False(t, ok)
}

func TestItemAccessors(t *testing.T) {
	it := NewItem()
	require.NoError(t, it.Insert(KindCreateTime, Int(1339168618)))
	require.NoError(t, it.Insert(KindSClickAction, Short(8)))

	ts, ok := it.Time(KindCreateTime)
	require.True(t, ok)
	assert.Equal(t, time.Unix(1339168618, 0), ts)

	_, ok = it.Time(KindSClickAction)
	assert.False(t, ok)
	_, ok = it.Text(KindSClickAction)
	assert.False(t, ok)
	_, ok = it.Time(KindAccessTime)
	assert.False(t, ok)
}

func TestItemName(t *testing.T) {
	it := NewItem()
	require.NoError(t, it.Insert(KindTitle, Text("Test One")))
	assert.Equal(t, "Test One", it.Name())

	require.NoError(t, it.Insert(KindGroup, Text("Test")))
	assert.Equal(t, "Test.Test One", it.Name())
}

func TestItemEqual(t *testing.T) {
	a, b := NewItem(), NewItem()
	require.NoError(t, a.Insert(KindTitle, Text("x")))
	assert.False(t, a.Equal(b))

	require.NoError(t, b.Insert(KindTitle, Text("x")))
	assert.True(t, a.Equal(b))

	require.NoError(t, b.Insert(KindTitle, Text("y")))
	assert.False(t, a.Equal(b))
}
