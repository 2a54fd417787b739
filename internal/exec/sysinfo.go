package exec

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// SystemReport returns a plain-text report of the host environment, one
// "key: value" line per entry.
func SystemReport() string {
	hostname, _ := os.Hostname()
	wd, _ := os.Getwd()

	lines := []string{
		fmt.Sprintf("OS: %s", runtime.GOOS),
		fmt.Sprintf("Arch: %s", runtime.GOARCH),
		fmt.Sprintf("CPUs: %d", runtime.NumCPU()),
		fmt.Sprintf("Go: %s", runtime.Version()),
		fmt.Sprintf("Hostname: %s", hostname),
		fmt.Sprintf("Working dir: %s", wd),
		fmt.Sprintf("Time: %s", time.Now().Format(time.RFC1123)),
	}
	return strings.Join(lines, "\n")
}
