package cipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KDFLabel is the HKDF info string fixed by the Shadowsocks AEAD spec.
const KDFLabel = "ss-subkey"

// ErrNotAEAD means an AEAD-only operation was called on a stream method.
var ErrNotAEAD = errors.New("cipher: not an AEAD method")

// aeadBackend seals or opens one record per update. The nonce starts at
// the bound IV and is incremented as a little-endian integer after each
// record, matching the Shadowsocks AEAD convention.
type aeadBackend struct {
	aead    cipher.AEAD
	nonce   []byte
	encrypt bool
}

func (b *aeadBackend) update(data []byte) ([]byte, error) {
	defer increment(b.nonce)
	if b.encrypt {
		return b.aead.Seal(nil, b.nonce, data, nil), nil
	}
	// append to a non-nil destination so a tag-only record opens to an
	// empty slice, not nil
	return b.aead.Open(make([]byte, 0, len(data)), b.nonce, data, nil)
}

// increment treats b as a little-endian unsigned integer and adds one,
// wrapping on overflow.
func increment(b []byte) {
	for i := range b {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

func newAEAD(internalName string, key []byte) (cipher.AEAD, error) {
	switch internalName {
	case "AES-128/GCM", "AES-192/GCM", "AES-256/GCM":
		blk, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(blk)
	}
	return nil, fmt.Errorf("unsupported AEAD %s", internalName)
}

// Subkey derives keyLen bytes from the master key and salt via
// HKDF-SHA1 with the fixed ss-subkey label.
func Subkey(key, salt []byte, keyLen int) ([]byte, error) {
	subkey := make([]byte, keyLen)
	r := hkdf.New(sha1.New, key, salt, []byte(KDFLabel))
	if _, err := io.ReadFull(r, subkey); err != nil {
		return nil, err
	}
	return subkey, nil
}

// SubkeyFromSalt derives the session subkey for the given salt from the
// Cipher's master key. Framing layers that must transmit the salt use
// this instead of DeriveSubkey.
func (c *Cipher) SubkeyFromSalt(salt []byte) ([]byte, error) {
	if c.info.Category != AEAD {
		return nil, ErrNotAEAD
	}
	return Subkey(c.key, salt, c.info.KeyLen)
}

// DeriveSubkey draws a fresh random salt of the method's salt length
// and derives the session subkey from the master key. The salt is not
// returned; callers that need it should draw one themselves and use
// SubkeyFromSalt.
func (c *Cipher) DeriveSubkey() ([]byte, error) {
	if c.info.Category != AEAD {
		return nil, ErrNotAEAD
	}
	salt, err := RandomIV(c.info.SaltLen)
	if err != nil {
		return nil, err
	}
	return Subkey(c.key, salt, c.info.KeyLen)
}
