package protocol

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/config"
	"pathfinder/internal/core/scanner/brute"
)

func TestRedisHandleError(t *testing.T) {
	c := NewRedisCracker()
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"invalid password", errors.New("ERR invalid password"), nil},
		{"wrongpass", errors.New("WRONGPASS invalid username-password pair"), nil},
		{"noauth", errors.New("NOAUTH Authentication required."), nil},
		{"timeout", errors.New("dial tcp 1.2.3.4:6379: i/o timeout"), brute.ErrConnectionFailed},
		{"refused", errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), brute.ErrConnectionFailed},
		{"http response", errors.New("redis: invalid response: HTTP/1.1 400 Bad Request"), brute.ErrProtocolError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.handleError(tt.in))
		})
	}
}

func TestMySQLHandleError(t *testing.T) {
	c := NewMySQLCracker()
	assert.NoError(t, c.handleError(&mysql.MySQLError{Number: 1045, Message: "Access denied for user 'root'"}))
	assert.Equal(t, brute.ErrConnectionFailed, c.handleError(&mysql.MySQLError{Number: 1040, Message: "Too many connections"}))
	assert.Equal(t, brute.ErrConnectionFailed, c.handleError(mysql.ErrInvalidConn))
	assert.Equal(t, brute.ErrProtocolError, c.handleError(errors.New("malformed packet")))
}

func TestPostgresHandleError(t *testing.T) {
	c := NewPostgresCracker()
	assert.NoError(t, c.handleError(&pq.Error{Code: "28P01"}))
	assert.Equal(t, brute.ErrConnectionFailed, c.handleError(&pq.Error{Code: "53300"}))
	assert.Equal(t, brute.ErrConnectionFailed, c.handleError(errors.New("dial tcp: connection refused")))
}

func TestMongoAndMSSQLHandleError(t *testing.T) {
	assert.NoError(t, NewMongoCracker().handleError(errors.New("connection() error: auth error: sasl conversation error: unable to authenticate")))
	assert.Equal(t, brute.ErrConnectionFailed, NewMongoCracker().handleError(errors.New("server selection error")))
	assert.NoError(t, NewMSSQLCracker().handleError(errors.New("mssql: Login failed for user 'sa'.")))
	assert.Equal(t, brute.ErrConnectionFailed, NewMSSQLCracker().handleError(errors.New("unable to open tcp connection")))
}

func TestSSHHandleError(t *testing.T) {
	c := NewSSHCracker()
	assert.NoError(t, c.handleError(errors.New("ssh: handshake failed: ssh: unable to authenticate, attempted methods [none password]")))
	assert.Equal(t, brute.ErrConnectionFailed, c.handleError(errors.New("read tcp: connection reset by peer")))
	assert.Equal(t, brute.ErrProtocolError, c.handleError(errors.New("ssh: no common algorithm for key exchange")))
}

// fakeTelnetServer 只接受 admin/admin
func fakeTelnetServer(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				r := bufio.NewReader(c)
				_, _ = c.Write([]byte("Welcome\r\nlogin: "))
				user, _ := r.ReadString('\n')
				_, _ = c.Write([]byte("Password: "))
				pass, _ := r.ReadString('\n')
				if strings.TrimSpace(user) == "admin" && strings.TrimSpace(pass) == "admin" {
					_, _ = c.Write([]byte("\r\nadmin@box:~$ "))
				} else {
					_, _ = c.Write([]byte("\r\nLogin incorrect\r\n"))
				}
				time.Sleep(100 * time.Millisecond)
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestTelnetCrackerAgainstFakeServer(t *testing.T) {
	host, port := fakeTelnetServer(t)
	c := NewTelnetCracker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := c.Check(ctx, host, port, brute.Auth{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Check(ctx, host, port, brute.Auth{Username: "admin", Password: "wrong"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegisterAll(t *testing.T) {
	s := brute.NewScanner(config.BruteConfig{})
	RegisterAll(s)
	assert.Equal(t, []string{"ftp", "mongo", "mssql", "mysql", "postgres", "redis", "snmp", "ssh", "telnet"}, s.Services())
}
