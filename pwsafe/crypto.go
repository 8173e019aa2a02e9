package pwsafe

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"io"

	"github.com/awnumar/memguard"
	"github.com/pkg/errors"
	"golang.org/x/crypto/twofish"
)

const (
	keySize  = 32
	saltSize = 32
	ivSize   = twofish.BlockSize
	macSize  = sha256.Size
)

func digest(b []byte) [sha256.Size]byte {
	return sha256.Sum256(b)
}

// stretch derives the key protecting K and L: SHA-256 over the password and
// the salt, then iter rounds of SHA-256 over the previous result.
func stretch(password, salt []byte, iter uint32) [sha256.Size]byte {
	h := sha256.New()
	h.Write(password)
	h.Write(salt)

	var b [sha256.Size]byte
	h.Sum(b[:0])
	for i := uint32(0); i < iter; i++ {
		b = sha256.Sum256(b[:])
	}
	return b
}

// authenticator accumulates the unpadded payload of every field written to
// or read from the record stream.
type authenticator struct {
	mac hash.Hash
}

func newAuthenticator(key []byte) *authenticator {
	return &authenticator{mac: hmac.New(sha256.New, key)}
}

func (a *authenticator) update(b []byte) {
	a.mac.Write(b)
}

func (a *authenticator) sum() []byte {
	return a.mac.Sum(nil)
}

func (a *authenticator) verify(expected []byte) error {
	if !hmac.Equal(a.sum(), expected) {
		return ErrAuthentication
	}
	return nil
}

func newTwofish(key []byte) (cipher.Block, error) {
	block, err := twofish.NewCipher(key)
	if err != nil {
		return nil, errors.Wrapf(ErrCrypto, "cannot create twofish cipher: %v", err)
	}
	return block, nil
}

// decryptECB decrypts the two independent blocks of a wrapped 32 bytes key.
func decryptECB(src, key []byte) ([]byte, error) {
	if len(src) != keySize {
		return nil, errors.Wrapf(ErrCrypto, "invalid key block length %d", len(src))
	}
	block, err := newTwofish(key)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, keySize)
	for i := 0; i < keySize; i += twofish.BlockSize {
		block.Decrypt(dst[i:i+twofish.BlockSize], src[i:i+twofish.BlockSize])
	}
	return dst, nil
}

func encryptECB(src, key []byte) ([]byte, error) {
	if len(src) != keySize {
		return nil, errors.Wrapf(ErrCrypto, "invalid key block length %d", len(src))
	}
	block, err := newTwofish(key)
	if err != nil {
		return nil, err
	}
	dst := make([]byte, keySize)
	for i := 0; i < keySize; i += twofish.BlockSize {
		block.Encrypt(dst[i:i+twofish.BlockSize], src[i:i+twofish.BlockSize])
	}
	return dst, nil
}

func decryptCBC(buf, key, iv []byte) error {
	block, err := newCBCBlock(buf, key, iv)
	if err != nil {
		return err
	}
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf, buf)
	return nil
}

func encryptCBC(buf, key, iv []byte) error {
	block, err := newCBCBlock(buf, key, iv)
	if err != nil {
		return err
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return nil
}

func newCBCBlock(buf, key, iv []byte) (cipher.Block, error) {
	if len(buf)%twofish.BlockSize != 0 {
		return nil, errors.Wrapf(ErrCrypto, "data length %d is not a multiple of the block size", len(buf))
	}
	if len(iv) != twofish.BlockSize {
		return nil, errors.Wrapf(ErrCrypto, "invalid iv length %d", len(iv))
	}
	return newTwofish(key)
}

func randomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(err, "cannot read random bytes")
	}
	return b, nil
}

// wipe zeroes secret material once it is no longer needed.
func wipe(bufs ...[]byte) {
	for _, b := range bufs {
		memguard.WipeBytes(b)
	}
}
