package shadowaead

import (
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/go-qss/qss/cipher"
	"github.com/go-qss/qss/internal"
)

// payloadSizeMask is the maximum size of payload in bytes.
const payloadSizeMask = 0x3FFF // 16*1024 - 1

// ErrRepeatedSalt means the peer sent a salt seen before, the mark of a
// replayed handshake.
var ErrRepeatedSalt = errors.New("shadowaead: repeated salt")

// record Ciphers are seeded with an all-zero nonce; the backend
// increments it per record.
func recordCipher(method string, subkey []byte, encrypt bool) (*cipher.Cipher, error) {
	info, err := cipher.Lookup(method)
	if err != nil {
		return nil, err
	}
	return cipher.New(method, subkey, make([]byte, info.IVLen), encrypt)
}

type writer struct {
	io.Writer
	method string
	key    []byte
	c      *cipher.Cipher
	buf    []byte
}

// NewWriter wraps an io.Writer with AEAD encryption for the given
// method and pre-shared master key.
func NewWriter(w io.Writer, method string, key []byte) io.Writer {
	return &writer{Writer: w, method: method, key: key}
}

func (w *writer) init() error {
	info, err := cipher.Lookup(w.method)
	if err != nil {
		return err
	}
	salt, err := cipher.RandomIV(info.SaltLen)
	if err != nil {
		return err
	}
	subkey, err := cipher.Subkey(w.key, salt, info.KeyLen)
	if err != nil {
		return err
	}
	if w.c, err = recordCipher(w.method, subkey, true); err != nil {
		return err
	}
	if _, err = w.Writer.Write(salt); err != nil {
		return err
	}
	w.buf = make([]byte, payloadSizeMask)
	return nil
}

// Write encrypts b and writes to the embedded io.Writer.
func (w *writer) Write(b []byte) (int, error) {
	n, err := w.ReadFrom(bytes.NewBuffer(b))
	return int(n), err
}

// ReadFrom reads from the given io.Reader until EOF or error, encrypts
// and writes to the embedded io.Writer. Returns number of bytes read
// from r and any error encountered.
func (w *writer) ReadFrom(r io.Reader) (n int64, err error) {
	if w.c == nil {
		if err := w.init(); err != nil {
			return 0, err
		}
	}

	for {
		nr, er := r.Read(w.buf)
		if nr > 0 {
			n += int64(nr)
			if ew := w.writeRecord(w.buf[:nr]); ew != nil {
				err = ew
				break
			}
		}

		if er != nil {
			if er != io.EOF { // ignore EOF as per io.ReaderFrom contract
				err = er
			}
			break
		}
	}

	return n, err
}

func (w *writer) writeRecord(payload []byte) error {
	lenBuf := []byte{byte(len(payload) >> 8), byte(len(payload))} // big-endian payload size
	sealedLen, err := w.c.Update(lenBuf)
	if err != nil {
		return err
	}
	sealedPayload, err := w.c.Update(payload)
	if err != nil {
		return err
	}
	if _, err = w.Writer.Write(sealedLen); err != nil {
		return err
	}
	_, err = w.Writer.Write(sealedPayload)
	return err
}

type reader struct {
	io.Reader
	method   string
	key      []byte
	c        *cipher.Cipher
	tagLen   int
	buf      []byte
	leftover []byte
}

// NewReader wraps an io.Reader with AEAD decryption.
func NewReader(r io.Reader, method string, key []byte) io.Reader {
	return &reader{Reader: r, method: method, key: key}
}

func (r *reader) init() error {
	info, err := cipher.Lookup(r.method)
	if err != nil {
		return err
	}
	salt := make([]byte, info.SaltLen)
	if _, err := io.ReadFull(r.Reader, salt); err != nil {
		return err
	}
	if internal.CheckSalt(salt) {
		return ErrRepeatedSalt
	}
	subkey, err := cipher.Subkey(r.key, salt, info.KeyLen)
	if err != nil {
		return err
	}
	if r.c, err = recordCipher(r.method, subkey, false); err != nil {
		return err
	}
	r.tagLen = info.TagLen
	r.buf = make([]byte, payloadSizeMask+r.tagLen)
	return nil
}

// read and decrypt one record into the internal buffer. Returns the
// decrypted payload length and any error encountered.
func (r *reader) read() (int, error) {
	if r.c == nil {
		if err := r.init(); err != nil {
			return 0, err
		}
	}

	// decrypt payload size
	buf := r.buf[:2+r.tagLen]
	if _, err := io.ReadFull(r.Reader, buf); err != nil {
		return 0, err
	}
	lenBuf, err := r.c.Update(buf)
	if err != nil {
		return 0, err
	}
	size := (int(lenBuf[0])<<8 + int(lenBuf[1])) & payloadSizeMask

	// decrypt payload
	buf = r.buf[:size+r.tagLen]
	if _, err := io.ReadFull(r.Reader, buf); err != nil {
		return 0, err
	}
	payload, err := r.c.Update(buf)
	if err != nil {
		return 0, err
	}
	copy(r.buf, payload)
	return size, nil
}

// Read reads from the embedded io.Reader, decrypts and writes to b.
func (r *reader) Read(b []byte) (int, error) {
	// copy decrypted bytes (if any) from previous record first
	if len(r.leftover) > 0 {
		n := copy(b, r.leftover)
		r.leftover = r.leftover[n:]
		return n, nil
	}

	n, err := r.read()
	m := copy(b, r.buf[:n])
	if m < n { // insufficient len(b), keep leftover for next read
		r.leftover = r.buf[m:n]
	}
	return m, err
}

// WriteTo reads from the embedded io.Reader, decrypts and writes to w
// until there's no more data to write or an error occurs.
func (r *reader) WriteTo(w io.Writer) (n int64, err error) {
	for {
		nr, er := r.read()
		if nr > 0 {
			nw, ew := w.Write(r.buf[:nr])
			n += int64(nw)

			if ew != nil {
				err = ew
				break
			}
		}

		if er != nil {
			if er != io.EOF { // ignore EOF as per io.Copy contract (using src.WriteTo shortcut)
				err = er
			}
			break
		}
	}

	return n, err
}

type streamConn struct {
	net.Conn
	r *reader
	w *writer
}

type closeWriter interface {
	CloseWrite() error
}

type closeReader interface {
	CloseRead() error
}

func (c *streamConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *streamConn) WriteTo(w io.Writer) (int64, error) {
	return c.r.WriteTo(w)
}

func (c *streamConn) Write(b []byte) (int, error) {
	return c.w.Write(b)
}

func (c *streamConn) ReadFrom(r io.Reader) (int64, error) {
	return c.w.ReadFrom(r)
}

func (c *streamConn) CloseRead() error {
	if c, ok := c.Conn.(closeReader); ok {
		return c.CloseRead()
	}
	return nil
}

func (c *streamConn) CloseWrite() error {
	if c, ok := c.Conn.(closeWriter); ok {
		return c.CloseWrite()
	}
	return nil
}

// NewConn wraps a stream-oriented net.Conn with AEAD protection.
func NewConn(c net.Conn, method string, key []byte) net.Conn {
	return &streamConn{
		Conn: c,
		r:    &reader{Reader: c, method: method, key: key},
		w:    &writer{Writer: c, method: method, key: key},
	}
}
