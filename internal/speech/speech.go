// Package speech holds the voice collaborator boundary. Speech synthesis
// and capture are external services invoked per step; only their interfaces
// and a thin default implementation live here.
package speech

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
)

// Speaker voices assistant output.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Listener captures one spoken command and returns its transcription.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// CommandSpeaker shells out to the platform speech command. Errors are the
// caller's to ignore; speech is never load-bearing.
type CommandSpeaker struct {
	runFn func(ctx context.Context, name string, args ...string) error
}

// NewCommandSpeaker creates a speaker using the platform's TTS command
// (say on macOS, espeak elsewhere, PowerShell on Windows).
func NewCommandSpeaker() *CommandSpeaker {
	return &CommandSpeaker{runFn: runCommand}
}

// Speak voices the text after flattening any markdown in it.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(FlattenMarkdown(text))
	if text == "" {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		return s.runFn(ctx, "say", text)
	case "windows":
		script := "Add-Type -AssemblyName System.Speech; " +
			"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak(" + psQuote(text) + ")"
		return s.runFn(ctx, "powershell", "-Command", script)
	default:
		return s.runFn(ctx, "espeak", text)
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// NopSpeaker discards all output. Used when speech output is disabled.
type NopSpeaker struct{}

// Speak implements Speaker.
func (NopSpeaker) Speak(context.Context, string) error { return nil }
