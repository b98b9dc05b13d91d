package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"cursorsuggest/buffer"
	"cursorsuggest/engine"
	"cursorsuggest/metrics"
	"cursorsuggest/trace"

	"github.com/neovim/go-client/nvim"
)

type Daemon struct {
	config      Config
	engine      *engine.Engine
	tracker     *metrics.Tracker
	recorder    *trace.Recorder
	listener    net.Listener
	socketPath  string
	pidPath     string
	clientCount int64
	stopOnce    sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewDaemon(config Config) (*Daemon, error) {
	var recorder *trace.Recorder
	if config.TracePath != "" {
		r, err := trace.Create(config.TracePath)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	paths := pathsFor(config)
	tracker := metrics.NewTracker()
	eng := engine.NewEngine(engine.EngineConfig{VerifyReplay: config.VerifyReplay}, tracker, recorder)

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		config:     config,
		engine:     eng,
		tracker:    tracker,
		recorder:   recorder,
		socketPath: paths.socket,
		pidPath:    paths.pid,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (d *Daemon) Start() error {
	// Setup logging and PID management
	d.writePidFile()
	defer d.removePidFile()

	// Setup socket
	if err := d.setupSocket(); err != nil {
		return err
	}
	defer d.cleanup()

	log.Printf("daemon listening on socket: %s", d.socketPath)

	// Setup shutdown handling
	d.setupShutdownHandling()

	// Start connection handling
	go d.acceptConnections()

	// Start idle monitoring
	go d.monitorIdleShutdown()

	// Wait for shutdown
	<-d.ctx.Done()
	log.Printf("daemon shutting down...")
	return nil
}

func (d *Daemon) setupSocket() error {
	// Remove existing socket
	os.Remove(d.socketPath)

	// Listen on Unix socket
	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return err
	}
	d.listener = listener
	return nil
}

func (d *Daemon) setupShutdownHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Printf("received shutdown signal")
		d.Stop()
	}()
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return // Server is shutting down
			default:
				log.Printf("error accepting connection: %v", err)
				continue
			}
		}

		atomic.AddInt64(&d.clientCount, 1)
		log.Printf("new client connected, total clients: %d", atomic.LoadInt64(&d.clientCount))
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		atomic.AddInt64(&d.clientCount, -1)
		log.Printf("client disconnected, remaining clients: %d", atomic.LoadInt64(&d.clientCount))
	}()

	// Create Neovim client from the connection
	n, err := nvim.New(conn, conn, conn, log.Printf)
	if err != nil {
		log.Printf("error creating nvim client: %v", err)
		return
	}

	s := newSession(d.engine, n, buffer.Config{NsID: d.config.NsID})
	defer s.closeAll()

	if err := buffer.RegisterEventHandler(n, s.handle); err != nil {
		log.Printf("error registering event handler: %v", err)
		return
	}

	// Serve this connection until it closes or context is done
	select {
	case <-d.ctx.Done():
		return
	default:
		if err := n.Serve(); err != nil && err != io.EOF {
			log.Printf("error serving connection: %v", err)
		}
	}
}

// documents is the part of the engine a session drives
type documents interface {
	Attach(path string, sink engine.Sink)
	Handle(path string, event engine.Event) (engine.Status, error)
}

// session routes one editor connection's events to the engine. Each path gets
// its own buffer, attached to the engine as the document's sink.
type session struct {
	engine documents
	client *nvim.Nvim
	config buffer.Config
	lookup buffer.Lookup // nil looks buffers up by name

	mu      sync.Mutex
	buffers map[string]*buffer.NvimBuffer
}

func newSession(eng documents, client *nvim.Nvim, config buffer.Config) *session {
	return &session{
		engine:  eng,
		client:  client,
		config:  config,
		buffers: make(map[string]*buffer.NvimBuffer),
	}
}

func (s *session) bufferFor(path string) *buffer.NvimBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.buffers[path]
	if !ok {
		buf = buffer.New(path, s.config)
		buf.SetClient(s.client)
		if s.lookup != nil {
			buf.SetLookup(s.lookup)
		}
		s.buffers[path] = buf
		s.engine.Attach(path, buf)
	}
	return buf
}

// handle serves the editor's event RPC. A text_changed event without payload
// reads the buffer from the editor instead.
func (s *session) handle(path, name, payload string) (map[string]any, error) {
	var event engine.Event
	if engine.EventTypeFromString(name) == engine.EventTextChanged && payload == "" {
		res, err := s.bufferFor(path).Sync()
		if err != nil {
			return nil, fmt.Errorf("sync %s: %w", path, err)
		}
		event = engine.Event{
			Type: engine.EventTextChanged,
			Data: engine.Snapshot{Lines: res.Lines, Cursor: res.Cursor},
		}
	} else {
		var err error
		if event, err = engine.DecodeEvent(name, payload); err != nil {
			return nil, err
		}
	}

	if event.Type == engine.EventClose {
		s.mu.Lock()
		delete(s.buffers, path)
		s.mu.Unlock()
	} else {
		s.bufferFor(path)
	}

	status, err := s.engine.Handle(path, event)
	if err != nil {
		return nil, err
	}
	return status.Map(), nil
}

// closeAll closes the documents of a connection that went away
func (s *session) closeAll() {
	s.mu.Lock()
	paths := make([]string, 0, len(s.buffers))
	for path := range s.buffers {
		paths = append(paths, path)
	}
	s.buffers = make(map[string]*buffer.NvimBuffer)
	s.mu.Unlock()

	for _, path := range paths {
		if _, err := s.engine.Handle(path, engine.Event{Type: engine.EventClose}); err != nil {
			log.Printf("error closing %s: %v", path, err)
		}
	}
}

func (d *Daemon) monitorIdleShutdown() {
	// In debug mode, shut down immediately when no clients are connected
	if d.config.DebugImmediateShutdown {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				if atomic.LoadInt64(&d.clientCount) == 0 {
					log.Printf("debug mode: no clients connected, shutting down daemon immediately")
					d.Stop()
					return
				}
			}
		}
	} else {
		// Normal mode: wait for timeout period before shutting down
		idleTimer := time.NewTimer(30 * time.Second)
		defer idleTimer.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-idleTimer.C:
				if atomic.LoadInt64(&d.clientCount) == 0 {
					log.Printf("no clients connected for timeout period, shutting down daemon")
					d.Stop()
					return
				}
			}

			// Reset timer when no clients
			if atomic.LoadInt64(&d.clientCount) == 0 {
				idleTimer.Reset(5 * time.Second)
			} else {
				idleTimer.Reset(30 * time.Second)
			}
		}
	}
}

func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		d.engine.Stop()
		if d.recorder != nil {
			if err := d.recorder.Close(); err != nil {
				log.Printf("error closing trace: %v", err)
			}
			log.Printf("trace closed after %d records", d.recorder.Count())
		}
		if d.listener != nil {
			d.listener.Close()
		}
		d.cancel()
	})
}

func (d *Daemon) cleanup() {
	os.Remove(d.socketPath)
}

func (d *Daemon) writePidFile() {
	pid := os.Getpid()
	err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0644)
	if err != nil {
		log.Printf("warning: could not write PID file: %v", err)
	}
	log.Printf("server started with PID %d", pid)
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not remove PID file: %v", err)
	}
}
