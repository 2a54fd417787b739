package exec

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"autobox/internal/errors"
)

// appAliases maps friendly names (including voice-transcribed ones) to the
// command actually launched.
var appAliases = map[string]string{
	"browser":            "firefox",
	"google chrome":      "google-chrome",
	"chrome":             "google-chrome",
	"visual studio code": "code",
	"vscode":             "code",
	"editor":             "code",
	"terminal":           "x-terminal-emulator",
	"calculator":         "gnome-calculator",
	"calc":               "gnome-calculator",
	"files":              "nautilus",
	"file manager":       "nautilus",
	"spotify":            "spotify",
	"vlc":                "vlc",
}

// Apps launches and terminates desktop applications.
type Apps struct {
	startFn func(command string) error // injectable for tests
	killFn  func(command string) error
}

// NewApps creates an app executor using the platform's process tools.
func NewApps() *Apps {
	return &Apps{startFn: startApp, killFn: killApp}
}

// resolveCommand applies the alias table to a user-supplied app name.
func resolveCommand(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if cmd, ok := appAliases[key]; ok {
		return cmd
	}
	return key
}

// Open launches an application by name.
func (a *Apps) Open(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.NewInvalidRequest("app name is required")
	}
	command := resolveCommand(name)
	if err := a.startFn(command); err != nil {
		return "", errors.NewExecutorFailed("open_app", fmt.Errorf("could not open %s: %w", name, err))
	}
	return command, nil
}

// Close terminates an application by name. Best-effort: the process may not
// be running.
func (a *Apps) Close(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NewInvalidRequest("app name is required")
	}
	if err := a.killFn(resolveCommand(name)); err != nil {
		return errors.NewExecutorFailed("close_app", err)
	}
	return nil
}

func startApp(command string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", "-a", command).Start()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", command).Start()
	default:
		return exec.Command(command).Start()
	}
}

func killApp(command string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("taskkill", "/f", "/im", command+".exe").Run()
	default:
		return exec.Command("pkill", "-f", command).Run()
	}
}
