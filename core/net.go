package core

import "net"

// Dial connects to address and wraps the connection with ciph.
func Dial(network, address string, ciph StreamConnCipher) (net.Conn, error) {
	c, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	return ciph.StreamConn(c), nil
}

// Listen announces on address; accepted connections come back already
// wrapped with ciph.
func Listen(network, address string, ciph StreamConnCipher) (net.Listener, error) {
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return &listener{Listener: l, cipher: ciph}, nil
}

type listener struct {
	net.Listener
	cipher StreamConnCipher
}

func (l *listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return l.cipher.StreamConn(c), nil
}

// ListenPacket announces on address and wraps the socket with ciph.
func ListenPacket(network, address string, ciph PacketConnCipher) (net.PacketConn, error) {
	c, err := net.ListenPacket(network, address)
	if err != nil {
		return nil, err
	}
	return ciph.PacketConn(c), nil
}
