package main

import (
	"net"
	"testing"
	"time"

	"github.com/go-qss/qss/socks"
)

func newLocalPacketConn(t *testing.T) net.PacketConn {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	return pc
}

func TestNATMap(t *testing.T) {
	nm := newNATMap(time.Minute)
	if pc := nm.Get("peer"); pc != nil {
		t.Fatalf("empty map returned %v", pc)
	}

	pc := newLocalPacketConn(t)
	defer pc.Close()

	nm.Set("peer", pc)
	if got := nm.Get("peer"); got != pc {
		t.Fatalf("Get returned %v, want %v", got, pc)
	}
	if got := nm.Del("peer"); got != pc {
		t.Fatalf("Del returned %v, want %v", got, pc)
	}
	if got := nm.Get("peer"); got != nil {
		t.Fatalf("entry survived Del: %v", got)
	}
}

func TestRelayBackStripsSourceAddr(t *testing.T) {
	user := newLocalPacketConn(t)
	defer user.Close()
	dst := newLocalPacketConn(t)
	defer dst.Close()
	src := newLocalPacketConn(t)
	defer src.Close()
	remote := newLocalPacketConn(t)
	defer remote.Close()

	go relayBack(user.LocalAddr(), dst, src, 250*time.Millisecond, stripSourceAddr)

	prefix := socks.ParseAddr("10.0.0.1:53")
	pkt := append(append([]byte{}, prefix...), "reply"...)
	if _, err := remote.WriteTo(pkt, src.LocalAddr()); err != nil {
		t.Fatal(err)
	}

	user.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 64)
	n, _, err := user.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "reply" {
		t.Fatalf("got %q, want the bare payload", buf[:n])
	}
}

func TestRelayBackPrependsSourceAddr(t *testing.T) {
	client := newLocalPacketConn(t)
	defer client.Close()
	dst := newLocalPacketConn(t)
	defer dst.Close()
	src := newLocalPacketConn(t)
	defer src.Close()
	target := newLocalPacketConn(t)
	defer target.Close()

	go relayBack(client.LocalAddr(), dst, src, 250*time.Millisecond, prependSourceAddr)

	if _, err := target.WriteTo([]byte("reply"), src.LocalAddr()); err != nil {
		t.Fatal(err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 64)
	n, _, err := client.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}

	a := socks.SplitAddr(buf[:n])
	if a == nil {
		t.Fatalf("no source address prefix in %q", buf[:n])
	}
	if a.String() != target.LocalAddr().String() {
		t.Fatalf("prefix %s, want %s", a, target.LocalAddr())
	}
	if string(buf[len(a):n]) != "reply" {
		t.Fatalf("payload %q", buf[len(a):n])
	}
}
