package testutil

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"
)

// DefaultTimeout ограничивает каждую операцию тестового клиента.
const DefaultTimeout = 5 * time.Second

// LineClient — тестовый пир, говорящий протоколом TYPE|f1|f2 поверх
// newline-фрейминга. Каждая операция ограничена дедлайном, чтобы
// сломанный сервер валил тест, а не вешал его.
type LineClient struct {
	t       testing.TB
	conn    net.Conn
	sc      *bufio.Scanner
	timeout time.Duration
}

// NewLineClient wraps an existing connection (net.Pipe in unit tests).
func NewLineClient(t testing.TB, conn net.Conn) *LineClient {
	t.Helper()
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 1024), 64*1024)
	return &LineClient{t: t, conn: conn, sc: sc, timeout: DefaultTimeout}
}

// DialLine connects to a live server over TCP.
// Закрывает соединение при завершении теста.
func DialLine(t testing.TB, addr string) *LineClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dialing %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewLineClient(t, conn)
}

// Close closes the underlying connection.
func (c *LineClient) Close() {
	_ = c.conn.Close()
}

// Send writes one record followed by the newline delimiter.
func (c *LineClient) Send(record string) {
	c.t.Helper()
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		c.t.Fatalf("setting write deadline: %v", err)
	}
	if _, err := c.conn.Write([]byte(record + "\n")); err != nil {
		c.t.Fatalf("sending %q: %v", record, err)
	}
}

// Recv returns the next record from the server.
func (c *LineClient) Recv() string {
	c.t.Helper()
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		c.t.Fatalf("setting read deadline: %v", err)
	}
	if !c.sc.Scan() {
		c.t.Fatalf("connection closed while waiting for a record: %v", c.sc.Err())
	}
	return strings.TrimSuffix(c.sc.Text(), "\r")
}

// Expect reads the next record and requires the given type tag.
// Returns the full record for further field checks.
func (c *LineClient) Expect(typ string) string {
	c.t.Helper()
	rec := c.Recv()
	if rec != typ && !strings.HasPrefix(rec, typ+"|") {
		c.t.Fatalf("expected %s record, got %q", typ, rec)
	}
	return rec
}

// ExpectExact reads the next record and requires an exact match.
func (c *LineClient) ExpectExact(record string) {
	c.t.Helper()
	if rec := c.Recv(); rec != record {
		c.t.Fatalf("expected %q, got %q", record, rec)
	}
}

// SkipUntil discards records until one of the given type arrives.
func (c *LineClient) SkipUntil(typ string) string {
	c.t.Helper()
	for {
		rec := c.Recv()
		if rec == typ || strings.HasPrefix(rec, typ+"|") {
			return rec
		}
	}
}

// Fields splits a record into its type tag and fields.
func Fields(record string) []string {
	return strings.Split(record, "|")
}

// Signup registers an account and returns the minted token.
func (c *LineClient) Signup(id, pw, nick string) string {
	c.t.Helper()
	c.Send("SIGNUP|" + id + "|" + pw + "|" + nick)
	rec := c.Expect("SIGNUP_OK")
	return Fields(rec)[1]
}

// Login authenticates and returns the minted token.
func (c *LineClient) Login(id, pw string) string {
	c.t.Helper()
	c.Send("LOGIN|" + id + "|" + pw)
	rec := c.Expect("LOGIN_OK")
	return Fields(rec)[1]
}
