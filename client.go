package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"cursorsuggest/logger"
)

// Client is what the editor starts: it makes sure a daemon answers on the
// runtime socket and relays its own stdio to it.
type Client struct {
	config Config
	paths  runtimePaths
}

func NewClient(config Config) *Client {
	return &Client{
		config: config,
		paths:  pathsFor(config),
	}
}

func (c *Client) Connect() error {
	conn, err := net.Dial("unix", c.paths.socket)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.paths.socket, err)
	}
	defer conn.Close()
	return relay(conn, os.Stdin, os.Stdout)
}

// relay copies in to conn and conn to out. Once in is drained only the write
// side is closed, so replies still pending reach out.
func relay(conn net.Conn, in io.Reader, out io.Writer) error {
	go func() {
		io.Copy(conn, in)
		if uc, ok := conn.(*net.UnixConn); ok {
			uc.CloseWrite()
			return
		}
		conn.Close()
	}()

	if _, err := io.Copy(out, conn); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// EnsureDaemonRunning returns once a daemon accepts connections, starting
// one when no live process owns the PID file.
func (c *Client) EnsureDaemonRunning() error {
	if pid, ok := daemonPID(c.paths.pid); ok {
		if c.ready() {
			logger.Debug("daemon already running with PID %d", pid)
			return nil
		}
		logger.Debug("daemon %d not accepting connections yet", pid)
		return c.waitForDaemon(5 * time.Second)
	}

	c.clearStale()
	return c.startDaemon()
}

// clearStale removes the files of a daemon that died without cleaning up
func (c *Client) clearStale() {
	for _, path := range []string{c.paths.pid, c.paths.socket} {
		if err := os.Remove(path); err == nil {
			logger.Debug("removed stale %s", path)
		}
	}
}

func (c *Client) startDaemon() error {
	logger.Debug("starting daemon in %s", c.paths.dir)

	// pin the runtime directory so both sides resolve the same socket
	config := c.config
	config.RuntimeDir = c.paths.dir
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	_, err = os.StartProcess(os.Args[0], []string{os.Args[0], "--daemon"}, &os.ProcAttr{
		Env:   append(withoutConfig(os.Environ()), configEnv+"="+string(raw)),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	return c.waitForDaemon(5 * time.Second)
}

func withoutConfig(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		if !strings.HasPrefix(kv, configEnv+"=") {
			out = append(out, kv)
		}
	}
	return out
}

// ready reports whether the socket accepts a connection
func (c *Client) ready() bool {
	conn, err := net.DialTimeout("unix", c.paths.socket, 100*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (c *Client) waitForDaemon(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.ready() {
			logger.Debug("daemon started successfully")
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon not listening on %s after %v", c.paths.socket, timeout)
}

// daemonPID reads the PID file and checks the process is alive
func daemonPID(pidPath string) (int, bool) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}

	// On Unix, Signal(0) checks if process exists
	return pid, process.Signal(syscall.Signal(0)) == nil
}
