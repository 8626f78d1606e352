package cipher

import (
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"errors"
	"fmt"

	"github.com/Yawning/chacha20"
)

// Cipher transforms data in one direction for one cipher method. It is
// bound to a method, key and IV at construction and keeps the evolving
// cipher state across Update calls, so a single Cipher must not be
// shared between goroutines.
type Cipher struct {
	info Info
	key  []byte
	iv   []byte
	kind backendKind

	stream cipher.Stream
	aead   *aeadBackend
}

var (
	// ErrKeySize means the supplied key length does not match the method.
	ErrKeySize = errors.New("cipher: bad key length")
	// ErrIVSize means the supplied IV length does not match the method.
	ErrIVSize = errors.New("cipher: bad IV length")
	// ErrNoBackend means Update was called on a Cipher that was not
	// built by New. This is a logic error.
	ErrNoBackend = errors.New("cipher: no backend initialised")
)

// New builds a Cipher for method with the given key and IV. Set encrypt
// for the encrypting direction. Key and IV lengths must match the
// catalogue entry exactly.
func New(method string, key, iv []byte, encrypt bool) (*Cipher, error) {
	info, err := Lookup(method)
	if err != nil {
		return nil, err
	}
	if len(key) != info.KeyLen {
		return nil, ErrKeySize
	}
	if len(iv) != info.IVLen {
		return nil, ErrIVSize
	}

	c := &Cipher{
		info: info,
		key:  append([]byte(nil), key...),
		iv:   append([]byte(nil), iv...),
		kind: info.kind,
	}

	switch info.kind {
	case backendRC4:
		h := md5.New()
		h.Write(key)
		h.Write(iv)
		s, err := rc4.NewCipher(h.Sum(nil))
		if err != nil {
			return nil, fmt.Errorf("cipher: rc4: %w", err)
		}
		c.stream = s

	case backendChaCha:
		// No provider entry carries ChaCha; this engine accepts both
		// the 8-byte and the IETF 12-byte nonce.
		s, err := chacha20.NewCipher(key, iv)
		if err != nil {
			return nil, fmt.Errorf("cipher: chacha20: %w", err)
		}
		c.stream = s

	case backendAEAD:
		aead, err := newAEAD(info.InternalName, key)
		if err != nil {
			return nil, fmt.Errorf("cipher: %s: %w", info.InternalName, err)
		}
		c.aead = &aeadBackend{aead: aead, nonce: append([]byte(nil), iv...), encrypt: encrypt}

	default:
		newStream, ok := streams[info.InternalName]
		if !ok {
			return nil, fmt.Errorf("cipher: no provider for %s", info.InternalName)
		}
		s, err := newStream(key, iv, encrypt)
		if err != nil {
			return nil, fmt.Errorf("cipher: %s: %w", info.InternalName, err)
		}
		c.stream = s
	}
	return c, nil
}

// Update transforms data and advances the cipher state: feeding chunks
// one by one gives the same output as one pass over their
// concatenation. For stream methods the output has the same length as
// the input. For AEAD methods each call handles one record; encryption
// appends the tag and decryption verifies and strips it.
func (c *Cipher) Update(data []byte) ([]byte, error) {
	switch {
	case c.stream != nil:
		out := make([]byte, len(data))
		c.stream.XORKeyStream(out, data)
		return out, nil
	case c.aead != nil:
		return c.aead.update(data)
	}
	return nil, ErrNoBackend
}

// IV returns the IV the Cipher was constructed with.
func (c *Cipher) IV() []byte { return c.iv }

// Info returns the catalogue entry the Cipher is bound to.
func (c *Cipher) Info() Info { return c.info }
