package shadowaead

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"
)

const method = "aes-256-gcm"

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatal(err)
	}
	return key
}

func TestStreamRoundTrip(t *testing.T) {
	key := testKey(t)
	payload := bytes.Repeat([]byte("sixteen byte str"), 100)

	var buf bytes.Buffer
	w := NewWriter(&buf, method, key)
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf, method, key)
	got := make([]byte, len(payload))
	if _, err := io.ReadFull(r, got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, got) {
		t.Fatal("round trip mismatch")
	}
}

func TestStreamMultipleRecords(t *testing.T) {
	key := testKey(t)

	var buf bytes.Buffer
	w := NewWriter(&buf, method, key)
	for _, chunk := range []string{"first", "second", "third record"} {
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(&buf, method, key)
	got, err := io.ReadAll(r)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	if want := "firstsecondthird record"; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// a Read with a buffer smaller than the record must hand out the rest
// on subsequent calls
func TestStreamLeftover(t *testing.T) {
	key := testKey(t)
	payload := []byte("a record larger than the read buffer")

	var buf bytes.Buffer
	w := NewWriter(&buf, method, key)
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}

	r := NewReader(&buf, method, key)
	var got []byte
	small := make([]byte, 7)
	for len(got) < len(payload) {
		n, err := r.Read(small)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, small[:n]...)
	}
	if !bytes.Equal(payload, got) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestStreamRejectsRepeatedSalt(t *testing.T) {
	key := testKey(t)

	var buf bytes.Buffer
	w := NewWriter(&buf, method, key)
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()

	r := NewReader(bytes.NewReader(stream), method, key)
	if _, err := io.ReadAll(r); err != nil && err != io.EOF {
		t.Fatal(err)
	}

	r = NewReader(bytes.NewReader(stream), method, key)
	if _, err := io.ReadAll(r); err != ErrRepeatedSalt {
		t.Fatalf("got %v, want ErrRepeatedSalt", err)
	}
}

func TestStreamRejectsTampering(t *testing.T) {
	key := testKey(t)

	var buf bytes.Buffer
	w := NewWriter(&buf, method, key)
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatal(err)
	}
	stream := buf.Bytes()
	stream[len(stream)-1] ^= 0x01

	r := NewReader(bytes.NewReader(stream), method, key)
	if _, err := io.ReadAll(r); err == nil {
		t.Fatal("tampered stream decrypted without error")
	}
}

func TestPackUnpack(t *testing.T) {
	key := testKey(t)
	payload := []byte("one datagram")

	pkt, err := Pack(payload, method, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkt) != 32+len(payload)+16 { // salt + payload + tag
		t.Fatalf("packet length %d", len(pkt))
	}

	got, err := Unpack(pkt, method, key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(payload, got) {
		t.Fatal("packet round trip mismatch")
	}

	pkt[0] ^= 0x01 // corrupt the salt, subkey no longer matches
	if _, err := Unpack(pkt, method, key); err == nil {
		t.Fatal("corrupted packet decrypted without error")
	}

	if _, err := Unpack(pkt[:10], method, key); err != ErrShortPacket {
		t.Fatalf("got %v, want ErrShortPacket", err)
	}
}
