package pwsafe

import (
	"fmt"
	"sort"
)

// Kind identifies the meaning of a field.
type Kind uint8

// Field kinds known to the header and body catalogs.
const (
	KindUnknown Kind = iota
	KindVersion
	KindUUID
	KindEnd
	KindGroup
	KindTitle
	KindUsername
	KindNotes
	KindPassword
	KindPasswordHistory
	KindPasswordPolicy
	KindPasswordSymbols
	KindCreateTime
	KindAccessTime
	KindExpiryTime
	KindModifyTime
	KindSClickAction
	KindDClickAction
	KindAutotype
	KindRunCommand
	KindProtected
	KindEmail
)

var kindNames = [...]string{
	KindUnknown:         "Unknown",
	KindVersion:         "Version",
	KindUUID:            "UUID",
	KindEnd:             "End",
	KindGroup:           "Group",
	KindTitle:           "Title",
	KindUsername:        "Username",
	KindNotes:           "Notes",
	KindPassword:        "Password",
	KindPasswordHistory: "PasswordHistory",
	KindPasswordPolicy:  "PasswordPolicy",
	KindPasswordSymbols: "PasswordSymbols",
	KindCreateTime:      "CreateTime",
	KindAccessTime:      "AccessTime",
	KindExpiryTime:      "ExpiryTime",
	KindModifyTime:      "ModifyTime",
	KindSClickAction:    "SClickAction",
	KindDClickAction:    "DClickAction",
	KindAutotype:        "Autotype",
	KindRunCommand:      "RunCommand",
	KindProtected:       "Protected",
	KindEmail:           "Email",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Type is the shape of a field value on disk.
type Type uint8

// Field value types.
const (
	TypeRaw Type = iota
	TypeByte
	TypeShort
	TypeInt
	TypeText
)

func (t Type) String() string {
	switch t {
	case TypeRaw:
		return "raw"
	case TypeByte:
		return "byte"
	case TypeShort:
		return "short"
	case TypeInt:
		return "int"
	case TypeText:
		return "text"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Def associates a field kind with its value type.
type Def struct {
	Kind Kind
	Type Type
}

// A Catalog maps one-byte on-disk tags to field definitions, and field kinds
// back to their tag. A Catalog is immutable once built.
type Catalog struct {
	name string
	defs map[byte]Def
	tags map[Kind]byte
}

// newCatalog builds a catalog and its reverse mapping. It panics if two tags
// share a kind.
func newCatalog(name string, defs map[byte]Def) *Catalog {
	c := &Catalog{
		name: name,
		defs: make(map[byte]Def, len(defs)),
		tags: make(map[Kind]byte, len(defs)),
	}
	for tag, def := range defs {
		if prev, ok := c.tags[def.Kind]; ok {
			panic(fmt.Sprintf("pwsafe: %s catalog maps both %#02x and %#02x to %s", name, prev, tag, def.Kind))
		}
		c.defs[tag] = def
		c.tags[def.Kind] = tag
	}
	return c
}

// Lookup returns the definition registered for tag.
func (c *Catalog) Lookup(tag byte) (Def, bool) {
	def, ok := c.defs[tag]
	return def, ok
}

// Tag returns the on-disk tag of kind.
func (c *Catalog) Tag(kind Kind) (byte, bool) {
	tag, ok := c.tags[kind]
	return tag, ok
}

// Def returns the definition of kind.
func (c *Catalog) Def(kind Kind) (Def, bool) {
	tag, ok := c.tags[kind]
	if !ok {
		return Def{}, false
	}
	return c.defs[tag], true
}

// Tags returns every tag of the catalog in ascending order.
func (c *Catalog) Tags() []byte {
	tags := make([]byte, 0, len(c.defs))
	for tag := range c.defs {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func (c *Catalog) String() string {
	return c.name
}

const tagEnd = 0xff

// HeaderCatalog describes the fields of the leading header record.
var HeaderCatalog = newCatalog("header", map[byte]Def{
	0x00:   {KindVersion, TypeShort},
	0x01:   {KindUUID, TypeRaw},
	tagEnd: {KindEnd, TypeRaw},
})

// BodyCatalog describes the fields of password entries.
var BodyCatalog = newCatalog("body", map[byte]Def{
	0x01:   {KindUUID, TypeRaw},
	0x02:   {KindGroup, TypeText},
	0x03:   {KindTitle, TypeText},
	0x04:   {KindUsername, TypeText},
	0x05:   {KindNotes, TypeText},
	0x06:   {KindPassword, TypeText},
	0x07:   {KindCreateTime, TypeInt},
	0x09:   {KindAccessTime, TypeInt},
	0x0a:   {KindExpiryTime, TypeInt},
	0x0c:   {KindModifyTime, TypeInt},
	0x0e:   {KindAutotype, TypeText},
	0x0f:   {KindPasswordHistory, TypeText},
	0x10:   {KindPasswordPolicy, TypeText},
	0x12:   {KindRunCommand, TypeText},
	0x13:   {KindDClickAction, TypeShort},
	0x14:   {KindEmail, TypeText},
	0x15:   {KindProtected, TypeByte},
	0x16:   {KindPasswordSymbols, TypeText},
	0x17:   {KindSClickAction, TypeShort},
	tagEnd: {KindEnd, TypeRaw},
})
