package shadowstream

import (
	"errors"
	"net"

	"github.com/go-qss/qss/cipher"
)

// ErrShortPacket means the packet cannot hold an IV of the method's length.
var ErrShortPacket = errors.New("shadowstream: short packet")

// packetConn protects each packet independently: a fresh IV followed by
// the transformed payload.
type packetConn struct {
	net.PacketConn
	method string
	key    []byte
}

// NewPacketConn wraps a net.PacketConn with stream cipher protection.
func NewPacketConn(c net.PacketConn, method string, key []byte) net.PacketConn {
	return &packetConn{PacketConn: c, method: method, key: key}
}

func (c *packetConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	iv, err := cipher.RandomIVFromMethod(c.method)
	if err != nil {
		return 0, err
	}
	ciph, err := cipher.New(c.method, c.key, iv, true)
	if err != nil {
		return 0, err
	}
	out, err := ciph.Update(b)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 0, len(iv)+len(out))
	buf = append(append(buf, iv...), out...)
	if _, err = c.PacketConn.WriteTo(buf, addr); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (c *packetConn) ReadFrom(b []byte) (int, net.Addr, error) {
	n, addr, err := c.PacketConn.ReadFrom(b)
	if err != nil {
		return n, addr, err
	}
	ivLen, err := cipher.IVLen(c.method)
	if err != nil {
		return 0, addr, err
	}
	if n < ivLen {
		return 0, addr, ErrShortPacket
	}
	ciph, err := cipher.New(c.method, c.key, b[:ivLen], false)
	if err != nil {
		return 0, addr, err
	}
	out, err := ciph.Update(b[ivLen:n])
	if err != nil {
		return 0, addr, err
	}
	return copy(b, out), addr, nil
}
