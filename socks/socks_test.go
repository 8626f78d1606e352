package socks

import (
	"bytes"
	"testing"
)

func TestParseAddrString(t *testing.T) {
	for _, s := range []string{"1.2.3.4:80", "[2001:db8::1]:443", "example.com:8388"} {
		addr := ParseAddr(s)
		if addr == nil {
			t.Fatalf("ParseAddr(%q) = nil", s)
		}
		if got := addr.String(); got != s {
			t.Fatalf("round trip %q -> %q", s, got)
		}
	}

	for _, s := range []string{"no-port", "1.2.3.4:notaport", ""} {
		if addr := ParseAddr(s); addr != nil {
			t.Fatalf("ParseAddr(%q) = %v, want nil", s, addr)
		}
	}
}

func TestReadAddr(t *testing.T) {
	want := ParseAddr("example.com:8388")
	got, err := ReadAddr(bytes.NewReader(want))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(want, got) {
		t.Fatalf("ReadAddr got %v, want %v", got, want)
	}

	if _, err := ReadAddr(bytes.NewReader([]byte{0xFF, 0, 0})); err != ErrAddressNotSupported {
		t.Fatalf("got %v, want ErrAddressNotSupported", err)
	}
}

func TestSplitAddr(t *testing.T) {
	addr := ParseAddr("1.2.3.4:80")
	buf := append(append([]byte{}, addr...), "trailing payload"...)

	got := SplitAddr(buf)
	if !bytes.Equal(addr, got) {
		t.Fatalf("SplitAddr got %v, want %v", got, addr)
	}

	if got := SplitAddr(addr[:3]); got != nil {
		t.Fatalf("SplitAddr on truncated address = %v, want nil", got)
	}
	if got := SplitAddr([]byte{0xFF, 1, 2}); got != nil {
		t.Fatalf("SplitAddr on bad atyp = %v, want nil", got)
	}
}

// fake duplex for driving Handshake
type rwBuf struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func (rw *rwBuf) Read(p []byte) (int, error)  { return rw.in.Read(p) }
func (rw *rwBuf) Write(p []byte) (int, error) { return rw.out.Write(p) }

func TestHandshake(t *testing.T) {
	target := ParseAddr("example.com:80")

	var req bytes.Buffer
	req.Write([]byte{5, 1, 0}) // VER NMETHODS METHODS
	req.Write([]byte{5, 1, 0}) // VER CMD RSV
	req.Write(target)          // ATYP DST.ADDR DST.PORT

	rw := &rwBuf{in: bytes.NewReader(req.Bytes())}
	addr, err := Handshake(rw)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(target, addr) {
		t.Fatalf("handshake address %v, want %v", addr, target)
	}
	// method selection reply then success reply
	wantOut := append([]byte{5, 0}, []byte{5, 0, 0, 1, 0, 0, 0, 0, 0, 0}...)
	if !bytes.Equal(rw.out.Bytes(), wantOut) {
		t.Fatalf("handshake replies %v, want %v", rw.out.Bytes(), wantOut)
	}
}

func TestHandshakeRejectsBind(t *testing.T) {
	var req bytes.Buffer
	req.Write([]byte{5, 1, 0})
	req.Write([]byte{5, CmdBind, 0})
	req.Write(ParseAddr("1.2.3.4:80"))

	rw := &rwBuf{in: bytes.NewReader(req.Bytes())}
	if _, err := Handshake(rw); err != ErrCommandNotSupported {
		t.Fatalf("got %v, want ErrCommandNotSupported", err)
	}
}
