package cipher

import (
	"crypto/cipher"
	"encoding/binary"

	"golang.org/x/crypto/salsa20/salsa"
)

// salsaStream adapts the raw Salsa20 core to cipher.Stream. The core
// works on whole 64-byte blocks addressed by a counter, so a partial
// block consumed by a previous call has to be replayed as padding.
type salsaStream struct {
	nonce   [8]byte
	key     [32]byte
	counter int
}

func (s *salsaStream) XORKeyStream(dst, src []byte) {
	padLen := s.counter % 64
	buf := make([]byte, len(src)+padLen)

	var subNonce [16]byte
	copy(subNonce[:], s.nonce[:])
	binary.LittleEndian.PutUint64(subNonce[8:], uint64(s.counter/64))

	copy(buf[padLen:], src)
	salsa.XORKeyStream(buf, buf, &subNonce, &s.key)
	copy(dst, buf[padLen:])

	s.counter += len(src)
}

func newSalsa20(key, iv []byte, _ bool) (cipher.Stream, error) {
	s := new(salsaStream)
	copy(s.nonce[:], iv)
	copy(s.key[:], key)
	return s, nil
}
