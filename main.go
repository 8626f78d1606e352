// Command qss is a Shadowsocks-compatible proxy: in client mode it
// accepts SOCKS connections and TCP/UDP tunnels and forwards them
// encrypted to a remote server; in server mode it decrypts and relays
// to the requested targets.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/go-qss/qss/core"
)

var config struct {
	Verbose    bool
	UDPTimeout time.Duration
}

var logger = logrus.New()

func main() {

	var flags struct {
		Client   string
		Server   string
		Cipher   string
		Key      string
		Password string
		Keygen   int
		Socks    string
		TCPTun   string
		UDPTun   string
		UDP      bool
	}

	flag.BoolVar(&config.Verbose, "verbose", false, "verbose mode")
	flag.StringVar(&flags.Cipher, "cipher", "aes-256-gcm", "available ciphers: "+strings.Join(core.ListCipher(), " "))
	flag.StringVar(&flags.Key, "key", "", "base64url-encoded key (derive from password if empty)")
	flag.IntVar(&flags.Keygen, "keygen", 0, "generate a base64url-encoded random key of given length in byte")
	flag.StringVar(&flags.Password, "password", "", "password")
	flag.StringVar(&flags.Server, "s", "", "server listen address or url")
	flag.StringVar(&flags.Client, "c", "", "client connect address or url")
	flag.StringVar(&flags.Socks, "socks", ":1080", "(client-only) SOCKS listen address")
	flag.StringVar(&flags.TCPTun, "tcptun", "", "(client-only) TCP tunnel (laddr1=raddr1,laddr2=raddr2,...)")
	flag.StringVar(&flags.UDPTun, "udptun", "", "(client-only) UDP tunnel (laddr1=raddr1,laddr2=raddr2,...)")
	flag.BoolVar(&flags.UDP, "udp", false, "(server-only) UDP support")
	flag.DurationVar(&config.UDPTimeout, "udptimeout", 5*time.Minute, "UDP tunnel timeout")
	flag.Parse()

	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if flags.Keygen > 0 {
		key := make([]byte, flags.Keygen)
		io.ReadFull(rand.Reader, key)
		fmt.Println(base64.URLEncoding.EncodeToString(key))
		return
	}

	if flags.Client == "" && flags.Server == "" {
		flag.Usage()
		return
	}

	var key []byte
	if flags.Key != "" {
		k, err := base64.URLEncoding.DecodeString(flags.Key)
		if err != nil {
			logger.Fatal(err)
		}
		key = k
	}

	if flags.Client != "" { // client mode
		addr, cipher, password, err := parseURL(flags.Client, flags.Cipher, flags.Password)
		if err != nil {
			logger.Fatal(err)
		}

		ciph, err := core.PickCipher(cipher, key, password)
		if err != nil {
			logger.Fatal(err)
		}

		if flags.UDPTun != "" {
			for _, tun := range strings.Split(flags.UDPTun, ",") {
				p := strings.SplitN(tun, "=", 2)
				if len(p) != 2 {
					logger.Fatalf("invalid UDP tunnel %q", tun)
				}
				go serveUDPTun(p[0], addr, p[1], ciph.PacketConn)
			}
		}

		if flags.TCPTun != "" {
			for _, tun := range strings.Split(flags.TCPTun, ",") {
				p := strings.SplitN(tun, "=", 2)
				if len(p) != 2 {
					logger.Fatalf("invalid TCP tunnel %q", tun)
				}
				go serveTCPTun(p[0], addr, p[1], ciph)
			}
		}

		if flags.Socks != "" {
			go serveSocks(flags.Socks, addr, ciph)
		}
	}

	if flags.Server != "" { // server mode
		addr, cipher, password, err := parseURL(flags.Server, flags.Cipher, flags.Password)
		if err != nil {
			logger.Fatal(err)
		}

		ciph, err := core.PickCipher(cipher, key, password)
		if err != nil {
			logger.Fatal(err)
		}

		if flags.UDP {
			go serveUDPRemote(addr, ciph.PacketConn)
		}
		go serveRemote(addr, ciph)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

// parseURL accepts either a bare host:port or an
// ss://method:password@host:port url overriding cipher and password.
func parseURL(s, cipher, password string) (addr, method, pass string, err error) {
	addr, method, pass = s, cipher, password
	if !strings.HasPrefix(s, "ss://") {
		return
	}
	u, err := url.Parse(s)
	if err != nil {
		return
	}
	addr = u.Host
	if u.User != nil {
		method = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	return
}
