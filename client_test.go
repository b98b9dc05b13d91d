package main

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"cursorsuggest/assert"
)

func TestPathsFor(t *testing.T) {
	paths := pathsFor(Config{RuntimeDir: "/run/cs"})

	assert.Equal(t, "/run/cs", paths.dir, "dir")
	assert.Equal(t, "/run/cs/cursorsuggest.sock", paths.socket, "socket")
	assert.Equal(t, "/run/cs/cursorsuggest.pid", paths.pid, "pid")
}

func TestDaemonPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cursorsuggest.pid")

	_, ok := daemonPID(path)
	assert.False(t, ok, "no file")

	assert.NoError(t, os.WriteFile(path, []byte("not a pid"), 0644), "write")
	_, ok = daemonPID(path)
	assert.False(t, ok, "garbage")

	assert.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644), "write")
	pid, ok := daemonPID(path)
	assert.True(t, ok, "this process is alive")
	assert.Equal(t, os.Getpid(), pid, "pid")
}

func TestClient_ClearStale(t *testing.T) {
	c := NewClient(Config{RuntimeDir: t.TempDir()})
	assert.NoError(t, os.WriteFile(c.paths.pid, []byte("0"), 0644), "pid file")
	assert.NoError(t, os.WriteFile(c.paths.socket, nil, 0644), "socket file")

	c.clearStale()

	_, err := os.Stat(c.paths.pid)
	assert.True(t, os.IsNotExist(err), "pid file removed")
	_, err = os.Stat(c.paths.socket)
	assert.True(t, os.IsNotExist(err), "socket removed")
}

func TestClient_WaitForDaemon(t *testing.T) {
	c := NewClient(Config{RuntimeDir: t.TempDir()})

	err := c.waitForDaemon(150 * time.Millisecond)
	assert.Error(t, err, "nothing listening")
	assert.Contains(t, err.Error(), c.paths.socket, "names the socket")

	l, err := net.Listen("unix", c.paths.socket)
	assert.NoError(t, err, "listen")
	defer l.Close()
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	assert.NoError(t, c.waitForDaemon(time.Second), "listening")
	assert.True(t, c.ready(), "ready")
}

func TestRelay_KeepsRepliesAfterInputEnds(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "relay.sock")
	l, err := net.Listen("unix", socket)
	assert.NoError(t, err, "listen")
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		got, _ := io.ReadAll(conn)
		conn.Write([]byte("got " + string(got)))
	}()

	conn, err := net.Dial("unix", socket)
	assert.NoError(t, err, "dial")
	defer conn.Close()

	var out bytes.Buffer
	assert.NoError(t, relay(conn, strings.NewReader("ping"), &out), "relay")
	assert.Equal(t, "got ping", out.String(), "reply after half close")
}

func TestWithoutConfig(t *testing.T) {
	env := withoutConfig([]string{"HOME=/root", configEnv + `={"ns_id":1}`, "CURSORSUGGEST_CONFIGX=1"})
	assert.Equal(t, []string{"HOME=/root", "CURSORSUGGEST_CONFIGX=1"}, env, "only the config dropped")
}
