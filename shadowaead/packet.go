package shadowaead

import (
	"errors"
	"net"

	"github.com/go-qss/qss/cipher"
)

// ErrShortPacket means that the packet is too short for a valid
// encrypted packet.
var ErrShortPacket = errors.New("shadowaead: short packet")

// Pack encrypts plaintext into one self-contained packet: a fresh salt
// followed by a single record sealed under the salt's subkey with a
// zero nonce.
func Pack(plaintext []byte, method string, key []byte) ([]byte, error) {
	info, err := cipher.Lookup(method)
	if err != nil {
		return nil, err
	}
	salt, err := cipher.RandomIV(info.SaltLen)
	if err != nil {
		return nil, err
	}
	subkey, err := cipher.Subkey(key, salt, info.KeyLen)
	if err != nil {
		return nil, err
	}
	c, err := recordCipher(method, subkey, true)
	if err != nil {
		return nil, err
	}
	sealed, err := c.Update(plaintext)
	if err != nil {
		return nil, err
	}
	return append(salt, sealed...), nil
}

// Unpack decrypts a packet produced by Pack.
func Unpack(pkt []byte, method string, key []byte) ([]byte, error) {
	info, err := cipher.Lookup(method)
	if err != nil {
		return nil, err
	}
	if len(pkt) < info.SaltLen+info.TagLen {
		return nil, ErrShortPacket
	}
	subkey, err := cipher.Subkey(key, pkt[:info.SaltLen], info.KeyLen)
	if err != nil {
		return nil, err
	}
	c, err := recordCipher(method, subkey, false)
	if err != nil {
		return nil, err
	}
	return c.Update(pkt[info.SaltLen:])
}

// packetConn protects each packet independently.
type packetConn struct {
	net.PacketConn
	method string
	key    []byte
}

// NewPacketConn wraps a net.PacketConn with AEAD protection.
func NewPacketConn(c net.PacketConn, method string, key []byte) net.PacketConn {
	return &packetConn{PacketConn: c, method: method, key: key}
}

// WriteTo encrypts b and writes to addr using the embedded PacketConn.
func (c *packetConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	pkt, err := Pack(b, c.method, c.key)
	if err != nil {
		return 0, err
	}
	if _, err = c.PacketConn.WriteTo(pkt, addr); err != nil {
		return 0, err
	}
	return len(b), nil
}

// ReadFrom reads from the embedded PacketConn and decrypts into b.
func (c *packetConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, addr, err := c.PacketConn.ReadFrom(b)
	if err != nil {
		return n, addr, err
	}
	pt, err := Unpack(b[:n], c.method, c.key)
	if err != nil {
		return 0, addr, err
	}
	return copy(b, pt), addr, nil
}
