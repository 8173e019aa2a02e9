package pwsafe

import (
	"bytes"
	"crypto/subtle"
	"io"
	"iter"
	"os"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CurrentVersion is the format version written in the header of databases
// created by New.
const CurrentVersion uint16 = 0x030d

const filePerm os.FileMode = 0600

// A Database holds the entries of a Password Safe V3 file. Entries are only
// persisted by Save, which rewrites the whole file.
//
// The entry list is guarded by a lock, but items returned by Items are
// shared and must not be modified concurrently.
type Database struct {
	path   string
	salt   []byte
	iter   uint32
	header *Item
	items  []*Item
	opts   Options
	log    *logrus.Entry
	mu     sync.RWMutex
}

// New returns an empty database that will be written at path. Nothing is
// written until Save is called.
func New(path string, opts *Options) *Database {
	o := opts.withDefaults()
	return &Database{
		path: path,
		salt: make([]byte, saltSize),
		iter: o.Iterations,
		opts: o,
		log:  o.Logger.WithField("path", path),
	}
}

// Open reads the database at path and decrypts it with password. No
// database is returned unless the file authenticates.
func Open(path, password string, opts *Options) (*Database, error) {
	o := opts.withDefaults()
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database %q", path)
	}
	db := &Database{
		path: path,
		opts: o,
		log:  o.Logger.WithField("path", path),
	}
	if err := db.unlock(content, []byte(password)); err != nil {
		return nil, errors.Wrapf(err, "cannot open database %q", path)
	}
	return db, nil
}

func (db *Database) unlock(content, password []byte) error {
	defer wipe(password)

	f := newFile(content)
	if err := f.readTag(); err != nil {
		return err
	}
	salt, err := f.readSalt()
	if err != nil {
		return err
	}
	rounds, err := f.readIterations()
	if err != nil {
		return err
	}
	expected, err := f.readKeyHash()
	if err != nil {
		return err
	}

	stretched := stretch(password, salt, rounds)
	defer wipe(stretched[:])
	if h := digest(stretched[:]); subtle.ConstantTimeCompare(h[:], expected) != 1 {
		return ErrWrongPassword
	}

	b12, err := f.readKeyBlock()
	if err != nil {
		return err
	}
	b34, err := f.readKeyBlock()
	if err != nil {
		return err
	}
	iv, err := f.readIV()
	if err != nil {
		return err
	}
	k, err := decryptECB(b12, stretched[:])
	if err != nil {
		return errors.Wrap(err, "cannot decrypt K")
	}
	defer wipe(k)
	l, err := decryptECB(b34, stretched[:])
	if err != nil {
		return errors.Wrap(err, "cannot decrypt L")
	}
	defer wipe(l)

	data, tag, err := f.readData()
	if err != nil {
		return err
	}
	if err := decryptCBC(data, k, iv); err != nil {
		return errors.Wrap(err, "cannot decrypt records")
	}
	defer wipe(data)

	mac := newAuthenticator(l)
	r := bytes.NewReader(data)
	header, err := parseRecord(r, HeaderCatalog, mac)
	if err == io.EOF {
		return ErrHeaderMissing
	}
	if err != nil {
		return errors.Wrap(err, "cannot read header")
	}

	var (
		items   []*Item
		unknown = len(header.unknown)
	)
	for {
		it, err := parseRecord(r, BodyCatalog, mac)
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "cannot read entry %d", len(items))
		}
		unknown += len(it.unknown)
		items = append(items, it)
	}

	if err := mac.verify(tag); err != nil {
		return err
	}

	db.salt = append([]byte(nil), salt...)
	db.iter = rounds
	db.header = header
	db.items = items

	db.log.WithFields(logrus.Fields{
		"iterations":     rounds,
		"entries":        len(items),
		"unknown_fields": unknown,
	}).Debug("database unlocked")
	return nil
}

// Save encrypts the database with password and rewrites its file. A new
// salt, new keys and a new IV are generated on every call.
func (db *Database) Save(password string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	content, salt, err := db.encode([]byte(password))
	if err != nil {
		return errors.Wrapf(err, "cannot save database %q", db.path)
	}
	if err := writeFileAtomic(db.path, content, filePerm); err != nil {
		return errors.Wrapf(err, "cannot save database %q", db.path)
	}
	db.salt = salt

	db.log.WithFields(logrus.Fields{
		"iterations": db.iter,
		"entries":    len(db.items),
		"size":       len(content),
	}).Debug("database saved")
	return nil
}

func (db *Database) encode(password []byte) ([]byte, []byte, error) {
	defer wipe(password)

	if db.header == nil {
		header, err := newHeader(db.opts.Rand)
		if err != nil {
			return nil, nil, err
		}
		db.header = header
	}

	salt, err := randomBytes(db.opts.Rand, saltSize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot generate salt")
	}
	k, err := randomBytes(db.opts.Rand, keySize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot generate K")
	}
	defer wipe(k)
	l, err := randomBytes(db.opts.Rand, keySize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot generate L")
	}
	defer wipe(l)
	iv, err := randomBytes(db.opts.Rand, ivSize)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot generate iv")
	}

	stretched := stretch(password, salt, db.iter)
	defer wipe(stretched[:])
	hash := digest(stretched[:])
	b12, err := encryptECB(k, stretched[:])
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot encrypt K")
	}
	b34, err := encryptECB(l, stretched[:])
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot encrypt L")
	}

	mac := newAuthenticator(l)
	var body bytes.Buffer
	if err := serializeRecord(&body, HeaderCatalog, db.header, mac); err != nil {
		return nil, nil, errors.Wrap(err, "cannot encode header")
	}
	for i, it := range db.items {
		if err := serializeRecord(&body, BodyCatalog, it, mac); err != nil {
			return nil, nil, errors.Wrapf(err, "cannot encode entry %d", i)
		}
	}
	data := body.Bytes()
	if err := encryptCBC(data, k, iv); err != nil {
		return nil, nil, errors.Wrap(err, "cannot encrypt records")
	}

	f := newFile(nil)
	f.writeTag()
	if err := f.writeSalt(salt); err != nil {
		return nil, nil, err
	}
	f.writeIterations(db.iter)
	f.writeKeyHash(hash[:])
	if err := f.writeKeyBlock(b12); err != nil {
		return nil, nil, err
	}
	if err := f.writeKeyBlock(b34); err != nil {
		return nil, nil, err
	}
	if err := f.writeIV(iv); err != nil {
		return nil, nil, err
	}
	f.writeData(data, mac.sum())
	return f.bytes(), salt, nil
}

func newHeader(r io.Reader) (*Item, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot generate database uuid")
	}
	h := newItem(HeaderCatalog)
	if err := h.Insert(KindVersion, Short(CurrentVersion)); err != nil {
		return nil, err
	}
	if err := h.Insert(KindUUID, Raw(id[:])); err != nil {
		return nil, err
	}
	return h, nil
}

// Insert appends an entry to the database. An entry without UUID is given a
// random one. The change is only persisted by the next Save.
func (db *Database) Insert(it *Item) error {
	if it.catalog != BodyCatalog {
		return errors.New("item is not a password entry")
	}
	if _, ok := it.Get(KindUUID); !ok {
		id, err := uuid.NewRandomFromReader(db.opts.Rand)
		if err != nil {
			return errors.Wrap(err, "cannot generate entry uuid")
		}
		if err := it.Insert(KindUUID, Raw(id[:])); err != nil {
			return err
		}
	}

	db.mu.Lock()
	db.items = append(db.items, it)
	db.mu.Unlock()
	return nil
}

// Items returns the entries in file order. The sequence can be iterated
// several times; each iteration sees the entries present when it starts.
func (db *Database) Items() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		db.mu.RLock()
		items := append([]*Item(nil), db.items...)
		db.mu.RUnlock()

		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}

// EachWithName calls fn for every entry with its display name, see
// Item.Name.
func (db *Database) EachWithName(fn func(name string, it *Item)) {
	for it := range db.Items() {
		fn(it.Name(), it)
	}
}

// EachMatching calls fn for every entry whose display name matches the
// regular expression pattern, ignoring case.
func (db *Database) EachMatching(pattern string, fn func(name string, it *Item)) error {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	db.EachWithName(func(name string, it *Item) {
		if re.MatchString(name) {
			fn(name, it)
		}
	})
	return nil
}

// Len returns the number of entries.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.items)
}

// Header returns the header record, or nil for a database that was never
// saved nor opened.
func (db *Database) Header() *Item {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.header
}

// Version returns the format version stored in the header.
func (db *Database) Version() uint16 {
	h := db.Header()
	if h == nil {
		return CurrentVersion
	}
	if v, ok := h.Get(KindVersion); ok {
		if s, ok := v.(Short); ok {
			return uint16(s)
		}
	}
	return 0
}

// Iterations returns the stretching round count used when saving.
func (db *Database) Iterations() uint32 {
	return db.iter
}

// Path returns the location of the database file.
func (db *Database) Path() string {
	return db.path
}
