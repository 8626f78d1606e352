package shadowstream

import (
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/go-qss/qss/cipher"
	"github.com/go-qss/qss/internal"
)

const bufSize = 32 * 1024

// ErrRepeatedIV means the peer sent an IV seen before, the mark of a
// replayed stream.
var ErrRepeatedIV = errors.New("shadowstream: repeated IV")

type writer struct {
	io.Writer
	method string
	key    []byte
	c      *cipher.Cipher
	buf    []byte
}

// NewWriter wraps an io.Writer with stream cipher encryption for the
// given method and pre-shared key. The IV is drawn and sent on first
// write.
func NewWriter(w io.Writer, method string, key []byte) io.Writer {
	return &writer{Writer: w, method: method, key: key}
}

func (w *writer) init() error {
	iv, err := cipher.RandomIVFromMethod(w.method)
	if err != nil {
		return err
	}
	if _, err = w.Writer.Write(iv); err != nil {
		return err
	}
	w.c, err = cipher.New(w.method, w.key, iv, true)
	if err != nil {
		return err
	}
	w.buf = make([]byte, bufSize)
	return nil
}

func (w *writer) ReadFrom(r io.Reader) (n int64, err error) {
	if w.c == nil {
		if err = w.init(); err != nil {
			return
		}
	}

	for {
		nr, er := r.Read(w.buf)
		if nr > 0 {
			n += int64(nr)
			out, eu := w.c.Update(w.buf[:nr])
			if eu != nil {
				err = eu
				return
			}
			if _, ew := w.Writer.Write(out); ew != nil {
				err = ew
				return
			}
		}

		if er != nil {
			if er != io.EOF { // ignore EOF as per io.ReaderFrom contract
				err = er
			}
			return
		}
	}
}

func (w *writer) Write(b []byte) (int, error) {
	n, err := w.ReadFrom(bytes.NewBuffer(b))
	return int(n), err
}

type reader struct {
	io.Reader
	method string
	key    []byte
	c      *cipher.Cipher
	buf    []byte
}

// NewReader wraps an io.Reader with stream cipher decryption.
func NewReader(r io.Reader, method string, key []byte) io.Reader {
	return &reader{Reader: r, method: method, key: key}
}

func (r *reader) init() error {
	n, err := cipher.IVLen(r.method)
	if err != nil {
		return err
	}
	iv := make([]byte, n)
	if _, err := io.ReadFull(r.Reader, iv); err != nil {
		return err
	}
	if internal.CheckSalt(iv) {
		return ErrRepeatedIV
	}
	r.c, err = cipher.New(r.method, r.key, iv, false)
	if err != nil {
		return err
	}
	r.buf = make([]byte, bufSize)
	return nil
}

func (r *reader) Read(b []byte) (int, error) {
	if r.c == nil {
		if err := r.init(); err != nil {
			return 0, err
		}
	}

	n, err := r.Reader.Read(b)
	if err != nil {
		return 0, err
	}
	out, err := r.c.Update(b[:n])
	if err != nil {
		return 0, err
	}
	copy(b, out)
	return n, nil
}

func (r *reader) WriteTo(w io.Writer) (n int64, err error) {
	if r.c == nil {
		if err = r.init(); err != nil {
			return
		}
	}

	for {
		nr, er := r.Read(r.buf)
		if nr > 0 {
			nw, ew := w.Write(r.buf[:nr])
			n += int64(nw)

			if ew != nil {
				err = ew
				return
			}
		}

		if er != nil {
			if er != io.EOF { // ignore EOF as per io.Copy contract (using src.WriteTo shortcut)
				err = er
			}
			return
		}
	}
}

type conn struct {
	net.Conn
	r *reader
	w *writer
}

// NewConn wraps a stream-oriented net.Conn with stream cipher
// encryption/decryption.
func NewConn(c net.Conn, method string, key []byte) net.Conn {
	return &conn{
		Conn: c,
		r:    &reader{Reader: c, method: method, key: key},
		w:    &writer{Writer: c, method: method, key: key},
	}
}

func (c *conn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func (c *conn) WriteTo(w io.Writer) (int64, error) {
	return c.r.WriteTo(w)
}

func (c *conn) Write(b []byte) (int, error) {
	return c.w.Write(b)
}

func (c *conn) ReadFrom(r io.Reader) (int64, error) {
	return c.w.ReadFrom(r)
}

type closeWriter interface {
	CloseWrite() error
}

type closeReader interface {
	CloseRead() error
}

func (c *conn) CloseRead() error {
	if c, ok := c.Conn.(closeReader); ok {
		return c.CloseRead()
	}
	return nil
}

func (c *conn) CloseWrite() error {
	if c, ok := c.Conn.(closeWriter); ok {
		return c.CloseWrite()
	}
	return nil
}
