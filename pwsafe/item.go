package pwsafe

import (
	"bytes"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// An Item is one record of the database: the header or a password entry. It
// holds at most one field per kind. Fields with a tag unknown to the catalog
// are not visible through Get but are written back when the database is
// saved.
type Item struct {
	catalog *Catalog
	fields  map[Kind]Field
	unknown []Field
}

// NewItem returns an empty password entry.
func NewItem() *Item {
	return newItem(BodyCatalog)
}

func newItem(c *Catalog) *Item {
	return &Item{catalog: c, fields: make(map[Kind]Field)}
}

// Get returns the value of the field of the given kind.
func (it *Item) Get(kind Kind) (Data, bool) {
	f, ok := it.fields[kind]
	if !ok {
		return nil, false
	}
	return f.Data, true
}

// Text returns the value of a text field. It returns false if the field is
// absent or is not a text field.
func (it *Item) Text(kind Kind) (string, bool) {
	data, ok := it.Get(kind)
	if !ok {
		return "", false
	}
	v, ok := data.(Text)
	return string(v), ok
}

// Time returns the value of a timestamp field, stored on disk as seconds
// since the Unix epoch.
func (it *Item) Time(kind Kind) (time.Time, bool) {
	data, ok := it.Get(kind)
	if !ok {
		return time.Time{}, false
	}
	v, ok := data.(Int)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(v), 0), true
}

// Insert sets the field of the given kind, replacing any previous value. The
// kind must belong to the item's catalog and data must have the type the
// catalog defines for it.
func (it *Item) Insert(kind Kind, data Data) error {
	def, ok := it.catalog.Def(kind)
	if !ok || kind == KindEnd {
		return errors.Wrapf(ErrUnknownKind, "cannot insert %s into a %s record", kind, it.catalog)
	}
	if data == nil || data.Type() != def.Type {
		return errors.Wrapf(ErrTypeMismatch, "%s field expects %s data", kind, def.Type)
	}
	tag, _ := it.catalog.Tag(kind)
	it.fields[kind] = Field{Def: def, Data: data, tag: tag}
	return nil
}

// Delete removes the field of the given kind.
func (it *Item) Delete(kind Kind) {
	delete(it.fields, kind)
}

// Len returns the number of known fields.
func (it *Item) Len() int {
	return len(it.fields)
}

// Kinds returns the kinds of the fields present, in on-disk tag order.
func (it *Item) Kinds() []Kind {
	kinds := make([]Kind, 0, len(it.fields))
	for k := range it.fields {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ti, _ := it.catalog.Tag(kinds[i])
		tj, _ := it.catalog.Tag(kinds[j])
		return ti < tj
	})
	return kinds
}

// Name returns "<group>.<title>" when the item has a group, or the title
// alone otherwise.
func (it *Item) Name() string {
	title, _ := it.Text(KindTitle)
	if group, ok := it.Text(KindGroup); ok {
		return group + "." + title
	}
	return title
}

// Equal reports whether both items hold the same known fields with the same
// values.
func (it *Item) Equal(other *Item) bool {
	if len(it.fields) != len(other.fields) {
		return false
	}
	for k, f := range it.fields {
		o, ok := other.fields[k]
		if !ok || f.Data.Type() != o.Data.Type() {
			return false
		}
		if !bytes.Equal(f.Data.payload(), o.Data.payload()) {
			return false
		}
	}
	return true
}

// parseRecord reads fields until the end sentinel. It returns io.EOF when r
// is exhausted before the first field of the record.
func parseRecord(r *bytes.Reader, c *Catalog, mac *authenticator) (*Item, error) {
	it := newItem(c)
	for n := 0; ; n++ {
		f, err := parseField(r, c, mac)
		if err == io.EOF {
			if n == 0 {
				return nil, io.EOF
			}
			return nil, errors.Wrap(ErrCorruptRecord, "record is not terminated")
		}
		if err != nil {
			return nil, err
		}
		switch f.Def.Kind {
		case KindEnd:
			return it, nil
		case KindUnknown:
			it.unknown = append(it.unknown, f)
		default:
			it.fields[f.Def.Kind] = f
		}
	}
}

// serializeRecord writes the known fields in tag order, then the unknown
// fields as they were read, then the end sentinel.
func serializeRecord(w *bytes.Buffer, c *Catalog, it *Item, mac *authenticator) error {
	for _, k := range it.Kinds() {
		if err := serializeField(w, c, it.fields[k], mac); err != nil {
			return err
		}
	}
	for _, f := range it.unknown {
		if err := serializeField(w, c, f, mac); err != nil {
			return err
		}
	}
	return serializeField(w, c, endField, mac)
}
