package core

import (
	"crypto/md5"
	"errors"
	"net"
	"strings"

	"github.com/go-qss/qss/cipher"
	"github.com/go-qss/qss/shadowaead"
	"github.com/go-qss/qss/shadowstream"
)

type Cipher interface {
	StreamConnCipher
	PacketConnCipher
}

type StreamConnCipher interface {
	StreamConn(net.Conn) net.Conn
}

type PacketConnCipher interface {
	PacketConn(net.PacketConn) net.PacketConn
}

// ErrCipherNotSupported occurs when a cipher is not in the catalogue.
var ErrCipherNotSupported = errors.New("cipher not supported")

// ErrKeySize means the supplied key does not match the method's key length.
var ErrKeySize = errors.New("key size error")

// ListCipher returns the catalogue of available cipher names.
func ListCipher() []string {
	return cipher.SupportedMethods()
}

// PickCipher returns a Cipher of the given method name. The key is
// derived from password if not given explicitly.
func PickCipher(name string, key []byte, password string) (Cipher, error) {
	name = strings.ToLower(name)

	info, err := cipher.Lookup(name)
	if err != nil {
		return nil, ErrCipherNotSupported
	}
	if len(key) == 0 {
		key = kdf(password, info.KeyLen)
	}
	if len(key) != info.KeyLen {
		return nil, ErrKeySize
	}

	if info.Category == cipher.AEAD {
		return &aeadCipher{method: name, key: key}, nil
	}
	return &streamCipher{method: name, key: key}, nil
}

type aeadCipher struct {
	method string
	key    []byte
}

func (c *aeadCipher) StreamConn(conn net.Conn) net.Conn {
	return shadowaead.NewConn(conn, c.method, c.key)
}

func (c *aeadCipher) PacketConn(conn net.PacketConn) net.PacketConn {
	return shadowaead.NewPacketConn(conn, c.method, c.key)
}

type streamCipher struct {
	method string
	key    []byte
}

func (c *streamCipher) StreamConn(conn net.Conn) net.Conn {
	return shadowstream.NewConn(conn, c.method, c.key)
}

func (c *streamCipher) PacketConn(conn net.PacketConn) net.PacketConn {
	return shadowstream.NewPacketConn(conn, c.method, c.key)
}

// key-derivation function from original Shadowsocks
func kdf(password string, keyLen int) []byte {
	var b, prev []byte
	h := md5.New()
	for len(b) < keyLen {
		h.Write(prev)
		h.Write([]byte(password))
		b = h.Sum(b)
		prev = b[len(b)-h.Size():]
		h.Reset()
	}
	return b[:keyLen]
}
