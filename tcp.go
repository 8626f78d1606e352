package main

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-qss/qss/core"
	"github.com/go-qss/qss/socks"
)

// serveSocks accepts SOCKS clients on addr and forwards each CONNECT
// through the encrypted server.
func serveSocks(addr, server string, ciph core.StreamConnCipher) {
	logger.WithFields(logrus.Fields{"listen": addr, "server": server}).Info("SOCKS proxy up")
	serveLocal(addr, server, ciph, func(c net.Conn) (socks.Addr, error) {
		return socks.Handshake(c)
	})
}

// serveTCPTun forwards every connection on addr to the fixed target
// through the encrypted server.
func serveTCPTun(addr, server, target string, ciph core.StreamConnCipher) {
	tgt := socks.ParseAddr(target)
	if tgt == nil {
		logger.Errorf("invalid tunnel target %q", target)
		return
	}
	logger.WithFields(logrus.Fields{"listen": addr, "server": server, "target": target}).Info("TCP tunnel up")
	serveLocal(addr, server, ciph, func(net.Conn) (socks.Addr, error) {
		return tgt, nil
	})
}

func serveLocal(addr, server string, ciph core.StreamConnCipher, target func(net.Conn) (socks.Addr, error)) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.WithError(err).Errorf("listen on %s", addr)
		return
	}
	for {
		c, err := ln.Accept()
		if err != nil {
			logger.WithError(err).Warn("accept")
			continue
		}
		go func() {
			defer c.Close()
			tgt, err := target(c)
			if err != nil {
				logger.WithError(err).Debug("resolve target")
				return
			}
			forward(c, server, tgt, ciph)
		}()
	}
}

// forward opens an encrypted connection to the server, sends the
// target address and splices the two connections together.
func forward(c net.Conn, server string, tgt socks.Addr, ciph core.StreamConnCipher) {
	rc, err := core.Dial("tcp", server, ciph)
	if err != nil {
		logger.WithError(err).Errorf("connect to server %s", server)
		return
	}
	defer rc.Close()

	if _, err := rc.Write(tgt); err != nil {
		logger.WithError(err).Debug("send target address")
		return
	}

	logger.Debugf("proxy %s <-> %s <-> %s", c.RemoteAddr(), server, tgt)
	if err := pipe(c, rc); err != nil && !isTimeout(err) {
		logger.WithError(err).Debug("relay")
	}
}

// serveRemote decrypts incoming connections on addr and relays each to
// the address it requests.
func serveRemote(addr string, ciph core.StreamConnCipher) {
	ln, err := core.Listen("tcp", addr, ciph)
	if err != nil {
		logger.WithError(err).Errorf("listen on %s", addr)
		return
	}
	logger.WithField("listen", addr).Info("TCP service up")
	for {
		c, err := ln.Accept()
		if err != nil {
			logger.WithError(err).Warn("accept")
			continue
		}
		go handleRemote(c)
	}
}

func handleRemote(c net.Conn) {
	defer c.Close()

	tgt, err := socks.ReadAddr(c)
	if err != nil {
		logger.WithError(err).Debug("read target address")
		return
	}

	rc, err := net.Dial("tcp", tgt.String())
	if err != nil {
		logger.WithError(err).Debugf("connect to target %s", tgt)
		return
	}
	defer rc.Close()

	logger.Debugf("proxy %s <-> %s", c.RemoteAddr(), tgt)
	if err := pipe(c, rc); err != nil && !isTimeout(err) {
		logger.WithError(err).Debug("relay")
	}
}

// pipe copies between a and b in both directions until one side is
// done, then wakes the other copy with an immediate deadline.
func pipe(a, b net.Conn) error {
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(b, a)
		a.SetDeadline(time.Now())
		b.SetDeadline(time.Now())
		done <- err
	}()

	_, err := io.Copy(a, b)
	a.SetDeadline(time.Now())
	b.SetDeadline(time.Now())
	if other := <-done; err == nil {
		err = other
	}
	return err
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
