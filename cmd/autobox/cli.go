package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"autobox/internal/errors"
	"autobox/internal/history"
	"autobox/internal/speech"
)

const banner = `
    _         _       ____
   / \  _   _| |_ ___| __ )  _____  __
  / _ \| | | | __/ _ \  _ \ / _ \ \/ /
 / ___ \ |_| | || (_) | |_) | (_) >  <
/_/   \_\__,_|\__\___/|____/ \___/_/\_\

  Sandboxed natural-language assistant

  Type a command, or: help, status, clear, multi, v, speak, exit`

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "autobox",
		Usage:   "Natural-language command assistant over a sandboxed workspace",
		Version: Version,
		Commands: []*cli.Command{
			runCmd(a),
			execCmd(a),
			memoryCmd(a),
			historyCmd(a),
			statusCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// runCmd starts the interactive session.
func runCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Start an interactive session",
		Action: func(c *cli.Context) error {
			return runInteractive(a)
		},
	}
}

// execCmd runs a single command and prints the result as JSON.
func execCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Usage:     "Execute one command and exit",
		ArgsUsage: "<command text>",
		Action: func(c *cli.Context) error {
			command := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if command == "" {
				return outputError(errors.NewInvalidRequest("command text is required"))
			}

			in := a.acquirer.Acquire(c.Context, command)
			result := a.dispatcher.Execute(c.Context, in, command)
			return outputJSON(result)
		},
	}
}

// memoryCmd shows or clears the session memory.
func memoryCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Show session memory slots",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "clear", Usage: "Clear all memory slots"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("clear") {
				if err := a.store.Clear(); err != nil {
					return outputError(errors.NewInternal(err))
				}
				return outputJSON(map[string]any{"cleared": true})
			}
			return outputJSON(a.store.Load())
		},
	}
}

// historyCmd lists recent dispatched steps.
func historyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent actions from the log",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum entries to return"},
		},
		Action: func(c *cli.Context) error {
			if a.db == nil {
				return outputError(errors.NewInvalidRequest("action log is unavailable"))
			}
			entries, err := history.Recent(a.db, c.Int("limit"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(entries)
		},
	}
}

// statusCmd prints the assistant's current state.
func statusCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show sandbox, memory, and log status",
		Action: func(c *cli.Context) error {
			return outputJSON(statusInfo(a))
		},
	}
}

// statusInfo collects the status view shared by the CLI command and the
// interactive token.
func statusInfo(a *app) map[string]any {
	info := map[string]any{
		"version":      Version,
		"sandbox_root": a.layout.Root,
		"folders":      a.layout.Folders,
		"model":        a.cfg.Model,
		"memory":       a.store.Load(),
	}
	if a.db != nil {
		if n, err := history.Count(a.db); err == nil {
			info["actions_logged"] = n
		}
	}
	return info
}

// Interactive session

// session holds interactive-loop state.
type session struct {
	app *app
	in  *bufio.Scanner
	out io.Writer
}

// runInteractive starts the read-eval loop on the process terminal.
func runInteractive(a *app) error {
	fmt.Println(banner)
	s := &session{app: a, in: bufio.NewScanner(os.Stdin), out: os.Stdout}
	return s.loop(context.Background())
}

func (s *session) loop(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, "> ")
		if !s.in.Scan() {
			fmt.Fprintln(s.out)
			return s.in.Err()
		}

		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			continue
		}

		handled, quit := s.handleToken(ctx, line)
		if quit {
			return nil
		}
		if handled {
			continue
		}

		s.execute(ctx, line)
	}
}

// handleToken intercepts reserved session tokens before acquisition.
func (s *session) handleToken(ctx context.Context, line string) (handled, quit bool) {
	switch strings.ToLower(line) {
	case "exit", "quit":
		fmt.Fprintln(s.out, "Goodbye.")
		return true, true
	case "help":
		fmt.Fprintln(s.out, helpText)
		return true, false
	case "status":
		data, _ := json.MarshalIndent(statusInfo(s.app), "", "  ")
		fmt.Fprintln(s.out, string(data))
		return true, false
	case "clear":
		if err := s.app.store.Clear(); err != nil {
			fmt.Fprintf(s.out, "could not clear memory: %v\n", err)
		} else {
			fmt.Fprintln(s.out, "Memory cleared.")
		}
		return true, false
	case "v":
		if command := s.captureVoice(ctx); command != "" {
			s.execute(ctx, command)
		}
		return true, false
	case "speak":
		fmt.Fprintln(s.out, toggleSpeech(s.app))
		return true, false
	case "multi":
		if command := s.readMulti(); command != "" {
			s.execute(ctx, command)
		}
		return true, false
	}
	return false, false
}

// captureVoice takes one spoken command from the capture backend. Returns
// "" when no backend is configured or capture fails.
func (s *session) captureVoice(ctx context.Context) string {
	if s.app.listener == nil {
		fmt.Fprintln(s.out, "No voice capture backend is configured.")
		return ""
	}
	fmt.Fprintln(s.out, "Listening...")
	command, err := s.app.listener.Listen(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not capture voice: %v\n", err)
		return ""
	}
	command = strings.TrimSpace(command)
	if command != "" {
		fmt.Fprintf(s.out, "Heard: %s\n", command)
	}
	return command
}

// readMulti collects lines until a blank line and joins them into one
// command.
func (s *session) readMulti() string {
	fmt.Fprintln(s.out, "Enter lines; finish with an empty line.")
	var lines []string
	for s.in.Scan() {
		line := strings.TrimSpace(s.in.Text())
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

func (s *session) execute(ctx context.Context, command string) {
	in := s.app.acquirer.Acquire(ctx, command)
	result := s.app.dispatcher.Execute(ctx, in, command)
	if len(result.Steps) != 1 || result.Message != result.Steps[0].Detail {
		// Single-step details were already printed by the dispatcher.
		fmt.Fprintln(s.out, result.Message)
	}
}

const helpText = `Commands are plain language: "create notes.txt in AB2",
"move that file to AB3", "search the web for weather", "open calculator".

Session tokens:
  help    show this text
  status  show sandbox, memory, and log status
  clear   clear session memory
  multi   enter a multi-line command
  v       capture one spoken command
  speak   toggle spoken responses
  exit    leave the session`

// toggleSpeech flips spoken responses for the session.
func toggleSpeech(a *app) string {
	a.speaking = !a.speaking
	if a.speaking {
		a.dispatcher.SetSpeaker(speech.NewCommandSpeaker())
		return "Spoken responses on."
	}
	a.dispatcher.SetSpeaker(speech.NopSpeaker{})
	return "Spoken responses off."
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
