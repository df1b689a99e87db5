// Package network wraps the TLS listener so plain HTTP requests that reach the
// HTTPS port are answered with a redirect instead of a handshake error.
package network

import (
	"bufio"
	"net"
	"net/http"
	"time"
)

// tlsRecordHandshake is the first byte of every TLS ClientHello.
const tlsRecordHandshake = 0x16

const sniffTimeout = 10 * time.Second

// RedirectListener hands TLS connections through and redirects everything else
// to https://.
type RedirectListener struct {
	net.Listener
}

func NewRedirectListener(listener net.Listener) net.Listener {
	return &RedirectListener{Listener: listener}
}

// Accept wraps the connection; the check itself happens on the first Read,
// inside the server's per-connection goroutine.
func (l *RedirectListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &sniffConn{Conn: conn, reader: bufio.NewReader(conn)}, nil
}

// sniffConn inspects the first byte on first Read.
type sniffConn struct {
	net.Conn
	reader  *bufio.Reader
	checked bool
}

func (c *sniffConn) Read(buf []byte) (int, error) {
	if !c.checked {
		c.checked = true
		_ = c.Conn.SetReadDeadline(time.Now().Add(sniffTimeout))
		first, err := c.reader.Peek(1)
		_ = c.Conn.SetReadDeadline(time.Time{})
		if err != nil {
			return 0, err
		}
		if first[0] != tlsRecordHandshake {
			c.redirect()
			return 0, net.ErrClosed
		}
	}
	return c.reader.Read(buf)
}

func (c *sniffConn) redirect() {
	defer c.Conn.Close()
	_ = c.Conn.SetDeadline(time.Now().Add(sniffTimeout))
	req, err := http.ReadRequest(c.reader)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusPermanentRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", "https://"+req.Host+req.URL.RequestURI())
	_ = resp.Write(c.Conn)
}
