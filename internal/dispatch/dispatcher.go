// Package dispatch routes validated intent steps to their executors and
// aggregates per-step outcomes. Steps run in order; a failed step never
// halts the rest and nothing is rolled back.
package dispatch

import (
	"context"
	"crypto/md5"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"autobox/internal/errors"
	"autobox/internal/exec"
	"autobox/internal/history"
	"autobox/internal/intent"
	"autobox/internal/memory"
	"autobox/internal/sandbox"
	"autobox/internal/speech"
)

// clipCopyLimit bounds the read_file content that gets auto-copied to the
// clipboard.
const clipCopyLimit = 1000

// errNoClipboard reports a clipboard step on a dispatcher built without a
// clipboard executor.
var errNoClipboard = fmt.Errorf("no clipboard executor configured")

// StepResult is the outcome of one dispatched step.
type StepResult struct {
	Index  int    `json:"index"`
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Result aggregates a full command's execution: overall success is the AND
// of every step, and Message is what the assistant says back.
type Result struct {
	OK      bool         `json:"ok"`
	Message string       `json:"message"`
	Steps   []StepResult `json:"steps,omitempty"`
}

// Deps are the dispatcher's collaborators. DB and Speaker may be nil; Out
// defaults to io.Discard and Log to a no-op logger.
type Deps struct {
	Layout   *sandbox.Layout
	Files    *exec.Files
	Web      *exec.Web
	Clip     *exec.Clipboard
	Apps     *exec.Apps
	Store    *memory.Store
	Resolver *memory.Resolver
	DB       *sql.DB
	Speaker  speech.Speaker
	Out      io.Writer
	Log      *zap.SugaredLogger
}

// Dispatcher executes intents against the sandbox and the host.
type Dispatcher struct {
	deps Deps
}

// New creates a dispatcher. Out, Log, and Speaker default to no-ops when
// absent; a nil DB skips history and a nil Clip fails clipboard steps
// cleanly instead of panicking.
func New(deps Deps) *Dispatcher {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if deps.Speaker == nil {
		deps.Speaker = speech.NopSpeaker{}
	}
	return &Dispatcher{deps: deps}
}

// SetSpeaker swaps the speech output at runtime (the session's voice
// toggle). nil disables speech.
func (d *Dispatcher) SetSpeaker(s speech.Speaker) {
	if s == nil {
		s = speech.NopSpeaker{}
	}
	d.deps.Speaker = s
}

// Execute runs every step of the intent in order. command is the original
// user text, kept for conversation handling and the action log. An intent
// with no steps is answered conversationally when the text reads as chat,
// and reported as not-actionable otherwise.
func (d *Dispatcher) Execute(ctx context.Context, in intent.Intent, command string) Result {
	if len(in.Steps) == 0 {
		if IsChat(command) {
			msg := ChatResponse(command)
			d.record(command, "chat", "", true, msg)
			d.announce(msg)
			return Result{OK: true, Message: msg}
		}
		msg := "I couldn't find anything actionable in that."
		d.record(command, "none", "", false, msg)
		d.announce(msg)
		return Result{OK: false, Message: msg}
	}

	res := Result{OK: true}
	for i, step := range in.Steps {
		sr := StepResult{Index: i, Action: step.Action, Target: step.Target}

		kind, known := intent.ParseAction(step.Action)
		if !known {
			err := errors.NewUnrecognizedAction(step.Action)
			sr.Detail = err.Error()
			d.deps.Log.Warnw("unrecognized action", "action", step.Action)
		} else {
			detail, err := d.runStep(ctx, kind, step, command)
			if err != nil {
				sr.Detail = err.Error()
				d.deps.Log.Warnw("step failed", "action", kind, "target", step.Target, "err", err)
			} else {
				sr.OK = true
				sr.Detail = detail
				d.deps.Log.Infow("step done", "action", kind, "target", step.Target)
			}
		}

		d.record(command, string(kind), step.Target, sr.OK, sr.Detail)
		if sr.Detail != "" {
			fmt.Fprintln(d.deps.Out, sr.Detail)
		}
		res.OK = res.OK && sr.OK
		res.Steps = append(res.Steps, sr)
	}

	res.Message = summarize(res)
	d.announce(res.Message)
	return res
}

// summarize builds the spoken/printed summary line for a multi-step result.
func summarize(res Result) string {
	if len(res.Steps) == 1 {
		if res.OK {
			return res.Steps[0].Detail
		}
		return "That didn't work: " + res.Steps[0].Detail
	}

	done := 0
	for _, s := range res.Steps {
		if s.OK {
			done++
		}
	}
	if res.OK {
		return fmt.Sprintf("All %d steps completed.", len(res.Steps))
	}
	return fmt.Sprintf("%d of %d steps completed.", done, len(res.Steps))
}

// runStep routes one step to its executor and returns a human-readable
// detail line on success.
func (d *Dispatcher) runStep(ctx context.Context, kind intent.ActionKind, step intent.Step, command string) (string, error) {
	content := step.Content.Text()

	switch kind {
	case intent.ActionCreateFile:
		return d.createFile(step.Target, content)
	case intent.ActionWriteFile:
		return d.writeFile(step.Target, content)
	case intent.ActionReadFile:
		return d.readFile(step.Target)
	case intent.ActionMoveFile:
		return d.moveFile(step.Target, content)
	case intent.ActionDeleteFile:
		return d.deleteFile(step.Target)
	case intent.ActionOpenURL:
		return d.openURL(firstNonEmpty(step.Target, content))
	case intent.ActionSearchWeb:
		return d.searchWeb(firstNonEmpty(step.Target, content))
	case intent.ActionExtractWeb:
		return d.extractWeb(ctx, firstNonEmpty(step.Target, content))
	case intent.ActionCopyClipboard:
		return d.copyClipboard(firstNonEmpty(content, step.Target))
	case intent.ActionPasteClipboard:
		return d.pasteClipboard()
	case intent.ActionOpenApp:
		return d.openApp(firstNonEmpty(step.Target, content))
	case intent.ActionCloseApp:
		return d.closeApp(firstNonEmpty(step.Target, content))
	case intent.ActionSystemInfo:
		return d.systemInfo()
	case intent.ActionNone:
		return ChatResponse(command), nil
	default:
		return "", errors.NewUnrecognizedAction(string(kind))
	}
}

func (d *Dispatcher) createFile(target, content string) (string, error) {
	if strings.TrimSpace(target) == "" {
		target = fmt.Sprintf("note_%d.txt", time.Now().Unix())
	}

	// A bare filename lands in the folder the user worked in last, when
	// one is remembered.
	if !strings.Contains(target, "/") && d.deps.Layout.Canonical(target) == "" {
		if folder := d.deps.Store.Load().LastFolder; folder != "" {
			target = folder + "/" + target
		}
	}

	abs, err := d.deps.Layout.Resolve(target)
	if err != nil {
		return "", err
	}
	if err := d.deps.Files.Create(abs, content); err != nil {
		return "", err
	}

	display := d.deps.Layout.Display(abs)
	d.remember(memory.SessionMemory{
		LastCreatedFile: display,
		LastTouchedFile: display,
		LastFolder:      d.deps.Layout.FolderOf(abs),
	})
	return "Created " + display, nil
}

func (d *Dispatcher) writeFile(target, content string) (string, error) {
	abs, err := d.resolvePath(target)
	if err != nil {
		return "", err
	}
	if err := d.deps.Files.Write(abs, content); err != nil {
		return "", err
	}

	display := d.deps.Layout.Display(abs)
	d.remember(memory.SessionMemory{
		LastWrittenFile: display,
		LastTouchedFile: display,
		LastFolder:      d.deps.Layout.FolderOf(abs),
	})
	return "Wrote " + display, nil
}

func (d *Dispatcher) readFile(target string) (string, error) {
	abs, err := d.resolvePath(target)
	if err != nil {
		return "", err
	}
	abs = d.findFallback(abs, target)

	content, err := d.deps.Files.Read(abs)
	if err != nil {
		return "", err
	}

	if content != "" && len(content) <= clipCopyLimit && d.deps.Clip != nil {
		if err := d.deps.Clip.Copy(content); err != nil {
			d.deps.Log.Debugw("clipboard copy skipped", "err", err)
		}
	}

	display := d.deps.Layout.Display(abs)
	d.remember(memory.SessionMemory{
		LastReadFile:    display,
		LastTouchedFile: display,
		LastFolder:      d.deps.Layout.FolderOf(abs),
	})
	return display + ":\n" + content, nil
}

func (d *Dispatcher) moveFile(target, dest string) (string, error) {
	if strings.TrimSpace(dest) == "" {
		return "", errors.NewInvalidRequest("move needs a destination")
	}

	srcAbs, err := d.resolvePath(target)
	if err != nil {
		return "", err
	}
	srcAbs = d.findFallback(srcAbs, target)

	dstAbs, err := d.deps.Layout.Resolve(dest)
	if err != nil {
		return "", err
	}

	newAbs, err := d.deps.Files.Move(srcAbs, dstAbs)
	if err != nil {
		return "", err
	}

	display := d.deps.Layout.Display(newAbs)
	d.remember(memory.SessionMemory{
		LastMovedFile:   display,
		LastTouchedFile: display,
		LastFolder:      d.deps.Layout.FolderOf(newAbs),
	})
	return "Moved to " + display, nil
}

func (d *Dispatcher) deleteFile(target string) (string, error) {
	abs, err := d.resolvePath(target)
	if err != nil {
		return "", err
	}
	abs = d.findFallback(abs, target)

	display := d.deps.Layout.Display(abs)
	if err := d.deps.Files.Delete(abs); err != nil {
		return "", err
	}
	return "Deleted " + display, nil
}

func (d *Dispatcher) openURL(raw string) (string, error) {
	opened, err := d.deps.Web.OpenURL(raw)
	if err != nil {
		return "", err
	}
	d.remember(memory.SessionMemory{LastURL: opened})
	return "Opened " + opened, nil
}

func (d *Dispatcher) searchWeb(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.NewInvalidRequest("search needs a query")
	}

	searchURL := d.deps.Web.SearchURL(query)
	if _, err := d.deps.Web.OpenURL(searchURL); err != nil {
		return "", err
	}

	d.saveSearchRecord(query, searchURL)
	d.remember(memory.SessionMemory{LastSearch: query, LastURL: searchURL})
	return "Searching the web for " + query, nil
}

// saveSearchRecord drops a small note file for the search so it shows up in
// the sandbox later. Best-effort; a failed save never fails the search.
func (d *Dispatcher) saveSearchRecord(query, searchURL string) {
	name := fmt.Sprintf("search_%s_%d.txt", sanitizeName(query, 20), time.Now().Unix())
	abs, err := d.deps.Layout.Resolve(name)
	if err != nil {
		d.deps.Log.Debugw("search record skipped", "err", err)
		return
	}
	body := fmt.Sprintf("Query: %s\nURL: %s\nTime: %s\n", query, searchURL, time.Now().Format(time.RFC1123))
	if err := d.deps.Files.Write(abs, body); err != nil {
		d.deps.Log.Debugw("search record skipped", "err", err)
	}
}

func (d *Dispatcher) extractWeb(ctx context.Context, raw string) (string, error) {
	text, err := d.deps.Web.Extract(ctx, raw)
	if err != nil {
		return "", err
	}

	// Autosave the extraction; the hash keeps repeat extractions of the
	// same page at one file.
	sum := md5.Sum([]byte(raw))
	name := fmt.Sprintf("web_%x.txt", sum[:4])
	if abs, rerr := d.deps.Layout.Resolve(name); rerr == nil {
		body := "URL: " + raw + "\n\n" + text
		if werr := d.deps.Files.Write(abs, body); werr != nil {
			d.deps.Log.Debugw("extraction autosave skipped", "err", werr)
		}
	}

	d.remember(memory.SessionMemory{LastURL: raw})
	return "Extracted " + raw + ":\n" + excerpt(text, 300), nil
}

func (d *Dispatcher) copyClipboard(text string) (string, error) {
	if d.deps.Clip == nil {
		return "", errors.NewExecutorFailed("copy_clipboard", errNoClipboard)
	}
	if err := d.deps.Clip.Copy(text); err != nil {
		return "", err
	}
	return "Copied to clipboard", nil
}

func (d *Dispatcher) pasteClipboard() (string, error) {
	if d.deps.Clip == nil {
		return "", errors.NewExecutorFailed("paste_clipboard", errNoClipboard)
	}
	text, err := d.deps.Clip.Paste()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "Clipboard is empty", nil
	}
	return "Clipboard:\n" + excerpt(text, 500), nil
}

func (d *Dispatcher) openApp(name string) (string, error) {
	command, err := d.deps.Apps.Open(name)
	if err != nil {
		return "", err
	}
	d.remember(memory.SessionMemory{LastApp: name})
	return "Opened " + command, nil
}

func (d *Dispatcher) closeApp(name string) (string, error) {
	if err := d.deps.Apps.Close(name); err != nil {
		return "", err
	}
	return "Closed " + name, nil
}

func (d *Dispatcher) systemInfo() (string, error) {
	report := exec.SystemReport()

	if abs, err := d.deps.Layout.Resolve("system_info.txt"); err == nil {
		if werr := d.deps.Files.Write(abs, report+"\n"); werr != nil {
			d.deps.Log.Debugw("system info save skipped", "err", werr)
		}
	}
	return report, nil
}

// resolvePath runs a user-supplied file reference through memory resolution
// and sandbox normalization.
func (d *Dispatcher) resolvePath(target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		return "", errors.NewInvalidRequest("a file name is required")
	}
	name := d.deps.Resolver.Resolve(target)
	return d.deps.Layout.Resolve(name)
}

// findFallback swaps a resolved path that doesn't exist for a same-named
// file found in another sandbox folder, when the user gave a bare name.
func (d *Dispatcher) findFallback(abs, target string) string {
	if strings.Contains(target, "/") {
		return abs
	}
	if _, err := os.Stat(abs); err == nil {
		return abs
	}
	if found := d.deps.Files.Find(filepath.Base(abs)); found != "" {
		return found
	}
	return abs
}

func (d *Dispatcher) remember(partial memory.SessionMemory) {
	if d.deps.Store == nil {
		return
	}
	if err := d.deps.Store.Update(partial); err != nil {
		d.deps.Log.Warnw("memory update failed", "err", err)
	}
}

func (d *Dispatcher) record(command, action, target string, ok bool, detail string) {
	if d.deps.DB == nil {
		return
	}
	_, err := history.Record(d.deps.DB, history.Entry{
		Command: command,
		Action:  action,
		Target:  target,
		OK:      ok,
		Detail:  excerpt(detail, 200),
	})
	if err != nil {
		d.deps.Log.Warnw("history record failed", "err", err)
	}
}

// announce speaks the message. Output of step details already went to Out;
// the summary goes to the speaker only so it isn't printed twice.
func (d *Dispatcher) announce(msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.deps.Speaker.Speak(ctx, msg); err != nil {
		d.deps.Log.Debugw("speech skipped", "err", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// sanitizeName reduces free text to a filename-safe token of at most max
// characters.
func sanitizeName(s string, max int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			if n := b.Len(); n > 0 && b.String()[n-1] != '_' {
				b.WriteByte('_')
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		out = "query"
	}
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
