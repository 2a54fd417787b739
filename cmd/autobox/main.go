package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"autobox/internal/config"
	"autobox/internal/dispatch"
	"autobox/internal/exec"
	"autobox/internal/history"
	"autobox/internal/intent"
	"autobox/internal/llm"
	"autobox/internal/logging"
	"autobox/internal/mcp"
	"autobox/internal/memory"
	"autobox/internal/sandbox"
	"autobox/internal/speech"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"run": true, "exec": true, "memory": true,
	"history": true, "status": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server or interactive session
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// app bundles the wired assistant. One instance per process.
type app struct {
	cfg        *config.Config
	layout     *sandbox.Layout
	store      *memory.Store
	db         *sql.DB
	acquirer   *intent.Acquirer
	dispatcher *dispatch.Dispatcher
	log        *zap.SugaredLogger
	listener   speech.Listener // nil until a capture backend is configured
	speaking   bool
}

// buildApp wires the full assistant over baseDir.
func buildApp(baseDir string) (*app, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logging.New(baseDir, cfg.Debug)
	if err != nil {
		// A broken log path never blocks the assistant.
		log = logging.Nop()
	}

	layout, err := sandbox.NewLayout(baseDir, cfg)
	if err != nil {
		return nil, err
	}
	if err := layout.Ensure(); err != nil {
		return nil, err
	}

	db, err := history.Init(baseDir)
	if err != nil {
		log.Warnw("action log unavailable", "err", err)
		db = nil
	}

	store := memory.NewStore(baseDir)

	var speaker speech.Speaker = speech.NopSpeaker{}
	if cfg.SpeechOutput {
		speaker = speech.NewCommandSpeaker()
	}

	model := llm.New(cfg.ModelBaseURL, cfg.Model,
		time.Duration(cfg.ModelTimeoutSeconds)*time.Second)

	dispatcher := dispatch.New(dispatch.Deps{
		Layout:   layout,
		Files:    exec.NewFiles(layout, cfg.MaxFileSizeMB),
		Web:      exec.NewWeb(0),
		Clip:     exec.NewClipboard(),
		Apps:     exec.NewApps(),
		Store:    store,
		Resolver: memory.NewResolver(store, layout),
		DB:       db,
		Speaker:  speaker,
		Out:      os.Stdout,
		Log:      log,
	})

	acquirer := intent.NewAcquirer(model, intent.NewFallbackParser(layout), log)

	return &app{
		cfg:        cfg,
		layout:     layout,
		store:      store,
		db:         db,
		acquirer:   acquirer,
		dispatcher: dispatcher,
		log:        log,
		speaking:   cfg.SpeechOutput,
	}, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.log.Sync()
}

func main() {
	// Handle --help/--version before any wiring
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	baseDir, err := config.BaseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	a, err := buildApp(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	// No args + interactive terminal → interactive session
	if len(os.Args) < 2 && isTerminal() {
		if err := runInteractive(a); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		cliApp := newCLIApp(a)
		if err := cliApp.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'autobox --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default for piped stdin)
	h := mcp.NewHandlers(a.acquirer, a.dispatcher, a.store, a.db)
	if err := mcp.Run(h, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
