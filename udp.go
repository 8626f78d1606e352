package main

import (
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-qss/qss/socks"
)

const udpBufSize = 64 * 1024

// what the back-channel copy does to each reply packet
const (
	stripSourceAddr   = iota // tunnel client: drop the leading address before handing to the user
	prependSourceAddr        // server: prefix the reply with its origin address
)

// natMap tracks one outbound socket per client address.
type natMap struct {
	mu      sync.Mutex
	conns   map[string]net.PacketConn
	timeout time.Duration
}

func newNATMap(timeout time.Duration) *natMap {
	return &natMap{conns: make(map[string]net.PacketConn), timeout: timeout}
}

func (m *natMap) Get(key string) net.PacketConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[key]
}

func (m *natMap) Set(key string, pc net.PacketConn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns[key] = pc
}

func (m *natMap) Del(key string) net.PacketConn {
	m.mu.Lock()
	defer m.mu.Unlock()
	pc := m.conns[key]
	delete(m.conns, key)
	return pc
}

// Add registers a fresh entry and starts its back-channel copy; the
// entry is torn down once the socket idles out.
func (m *natMap) Add(peer net.Addr, dst, src net.PacketConn, mode int) {
	m.Set(peer.String(), src)
	go func() {
		relayBack(peer, dst, src, m.timeout, mode)
		if pc := m.Del(peer.String()); pc != nil {
			pc.Close()
		}
	}()
}

// relayBack pumps replies from src to peer over dst until src stays
// idle past the timeout.
func relayBack(peer net.Addr, dst, src net.PacketConn, timeout time.Duration, mode int) {
	buf := make([]byte, udpBufSize)
	for {
		src.SetReadDeadline(time.Now().Add(timeout))
		n, raddr, err := src.ReadFrom(buf)
		if err != nil {
			if !isTimeout(err) {
				logger.WithError(err).Debug("udp reply read")
			}
			return
		}

		switch mode {
		case stripSourceAddr:
			a := socks.SplitAddr(buf[:n])
			if a == nil {
				continue
			}
			_, err = dst.WriteTo(buf[len(a):n], peer)
		case prependSourceAddr:
			a := socks.ParseAddr(raddr.String())
			pkt := make([]byte, 0, len(a)+n)
			pkt = append(append(pkt, a...), buf[:n]...)
			_, err = dst.WriteTo(pkt, peer)
		}
		if err != nil {
			logger.WithError(err).Debug("udp reply write")
			return
		}
	}
}

// serveUDPTun reads plain datagrams on laddr, prefixes the fixed
// target address and sends them encrypted to the server.
func serveUDPTun(laddr, server, target string, shadow func(net.PacketConn) net.PacketConn) {
	srvAddr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		logger.WithError(err).Errorf("resolve server %s", server)
		return
	}
	tgt := socks.ParseAddr(target)
	if tgt == nil {
		logger.Errorf("invalid tunnel target %q", target)
		return
	}

	c, err := net.ListenPacket("udp", laddr)
	if err != nil {
		logger.WithError(err).Errorf("listen on %s", laddr)
		return
	}
	defer c.Close()

	nm := newNATMap(config.UDPTimeout)
	logger.WithFields(logrus.Fields{"listen": laddr, "server": server, "target": target}).Info("UDP tunnel up")

	buf := make([]byte, udpBufSize)
	copy(buf, tgt)
	for {
		n, raddr, err := c.ReadFrom(buf[len(tgt):])
		if err != nil {
			logger.WithError(err).Debug("udp read")
			continue
		}

		pc := nm.Get(raddr.String())
		if pc == nil {
			pc, err = net.ListenPacket("udp", "")
			if err != nil {
				logger.WithError(err).Error("udp socket")
				continue
			}
			pc = shadow(pc)
			nm.Add(raddr, c, pc, stripSourceAddr)
		}

		if _, err = pc.WriteTo(buf[:len(tgt)+n], srvAddr); err != nil {
			logger.WithError(err).Debug("udp write to server")
		}
	}
}

// serveUDPRemote decrypts datagrams on addr and relays each to the
// target named in its leading address, NAT-style.
func serveUDPRemote(addr string, shadow func(net.PacketConn) net.PacketConn) {
	c, err := net.ListenPacket("udp", addr)
	if err != nil {
		logger.WithError(err).Errorf("listen on %s", addr)
		return
	}
	defer c.Close()
	c = shadow(c)

	nm := newNATMap(config.UDPTimeout)
	logger.WithField("listen", addr).Info("UDP service up")

	buf := make([]byte, udpBufSize)
	for {
		n, raddr, err := c.ReadFrom(buf)
		if err != nil {
			logger.WithError(err).Debug("udp read")
			continue
		}

		tgt := socks.SplitAddr(buf[:n])
		if tgt == nil {
			logger.Debugf("no target address in packet from %s", raddr)
			continue
		}
		tgtAddr, err := net.ResolveUDPAddr("udp", tgt.String())
		if err != nil {
			logger.WithError(err).Debugf("resolve target %s", tgt)
			continue
		}

		pc := nm.Get(raddr.String())
		if pc == nil {
			pc, err = net.ListenPacket("udp", "")
			if err != nil {
				logger.WithError(err).Error("udp socket")
				continue
			}
			nm.Add(raddr, c, pc, prependSourceAddr)
		}

		if _, err = pc.WriteTo(buf[len(tgt):n], tgtAddr); err != nil {
			logger.WithError(err).Debug("udp write to target")
		}
	}
}
