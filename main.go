package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"cursorsuggest/logger"
	"cursorsuggest/trace"
)

type Config struct {
	NsID                   int    `json:"ns_id"`
	LogLevel               string `json:"log_level"`  // debug, info, warn, error
	TracePath              string `json:"trace_path"` // record every injection here when set
	VerifyReplay           bool   `json:"verify_replay"`
	DebugImmediateShutdown bool   `json:"debug_immediate_shutdown"`
	RuntimeDir             string `json:"runtime_dir"` // socket, PID and log files; the executable's directory when empty
}

type ServerMode string

const (
	ModeDaemon ServerMode = "daemon"
	ModeClient ServerMode = "client"
	ModeReplay ServerMode = "replay"
)

const configEnv = "CURSORSUGGEST_CONFIG"

func execDir() string {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	return filepath.Dir(execPath)
}

// runtimePaths are the files a client and its daemon agree on
type runtimePaths struct {
	dir    string
	socket string
	pid    string
}

func pathsFor(config Config) runtimePaths {
	dir := config.RuntimeDir
	if dir == "" {
		dir = execDir()
	}
	return runtimePaths{
		dir:    dir,
		socket: filepath.Join(dir, "cursorsuggest.sock"),
		pid:    filepath.Join(dir, "cursorsuggest.pid"),
	}
}

// Setup logger to log to a file in the runtime directory
// Caller must defer logger.Close()
func setupLogger(config Config) *logger.LimitedLogger {
	limitedLogger, err := logger.Open(pathsFor(config).dir, logger.ParseLogLevel(config.LogLevel))
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	log.SetOutput(limitedLogger)
	return limitedLogger
}

// parseConfig decodes the JSON config. An empty string yields the defaults.
func parseConfig(raw string) (Config, error) {
	config := Config{LogLevel: "info"}
	if raw == "" {
		return config, nil
	}
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	return config, nil
}

func loadConfig() Config {
	config, err := parseConfig(os.Getenv(configEnv))
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("config: %+v", config)
	return config
}

func runDaemon() {
	config := loadConfig()

	logger := setupLogger(config)
	defer logger.Close()

	daemon, err := NewDaemon(config)
	if err != nil {
		log.Fatalf("error creating daemon: %v", err)
	}

	if err := daemon.Start(); err != nil {
		log.Fatalf("error starting daemon: %v", err)
	}
}

func runClient() {
	client := NewClient(loadConfig())

	if err := client.EnsureDaemonRunning(); err != nil {
		log.Fatalf("error ensuring daemon is running: %v", err)
	}

	if err := client.Connect(); err != nil {
		log.Fatalf("error connecting to daemon: %v", err)
	}
}

// runReplay checks a recorded trace and exits non-zero on any mismatch
func runReplay(path string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("error opening trace: %v", err)
	}
	defer f.Close()

	checked, mismatches, err := trace.Replay(f)
	for _, m := range mismatches {
		fmt.Println(m)
	}
	fmt.Printf("%d records checked, %d mismatches\n", checked, len(mismatches))
	if err != nil {
		log.Fatalf("error reading trace: %v", err)
	}
	if len(mismatches) > 0 {
		os.Exit(1)
	}
}

func main() {
	var mode ServerMode = ModeClient

	// Check command line arguments
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--daemon":
			mode = ModeDaemon
		case "--replay":
			mode = ModeReplay
		}
	}

	switch mode {
	case ModeDaemon:
		runDaemon()
	case ModeReplay:
		if len(os.Args) < 3 {
			log.Fatalf("usage: %s --replay <trace file>", os.Args[0])
		}
		runReplay(os.Args[2])
	case ModeClient:
		runClient()
	}
}
