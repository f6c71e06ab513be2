// Package testbackend turns a test binary into a scripted backend.
//
// Tests that need a real child process call RunIfRequested from TestMain and
// point the bridge at Location. The bridge then spawns the test binary itself
// as "<test binary> -u <script>"; RunIfRequested sees the helper variables in
// the restricted environment and runs the requested mode instead of the tests.
package testbackend

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/wagiedev/brainbridge/internal/config"
)

const (
	// HelperEnv marks a process as a helper backend.
	HelperEnv = "GO_WANT_HELPER_PROCESS"

	// ModeEnv selects the helper behavior.
	ModeEnv = "BRAINBRIDGE_HELPER_MODE"
)

// Helper modes.
const (
	// ModeEcho answers requests: "2+2" gives "4", "boom" an error, "crash"
	// exits with status 3, "shutdown" requests shutdown, "slow" answers after
	// 300ms, "silent" never answers, "env" answers with the environment, and
	// anything else is echoed back. get_context answers "ctx".
	ModeEcho = "echo"

	// ModeIgnoreTerm behaves like ModeEcho but ignores SIGTERM.
	ModeIgnoreTerm = "ignore-term"

	// ModeCrash writes to stderr and exits with status 3 immediately.
	ModeCrash = "crash"

	// ModeGarbage answers every request with a line that is not JSON.
	ModeGarbage = "garbage"

	// ModeUnsolicited writes a response before any request arrives.
	ModeUnsolicited = "unsolicited"

	// ModeSplit writes each response one byte at a time.
	ModeSplit = "split"
)

// Env returns the extra environment that selects mode.
func Env(mode string) map[string]string {
	return map[string]string{HelperEnv: "1", ModeEnv: mode}
}

// Location returns a location whose interpreter is the running test binary.
// The script is an empty file so resolution succeeds.
func Location(t testing.TB) config.Location {
	t.Helper()

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locate test binary: %v", err)
	}

	script := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(script, nil, 0o644); err != nil {
		t.Fatalf("write helper script: %v", err)
	}

	return config.Location{Interpreter: exe, Script: script}
}

// RunIfRequested runs the helper backend and exits when this process was
// started as one. Otherwise it returns immediately.
func RunIfRequested() {
	if os.Getenv(HelperEnv) != "1" {
		return
	}

	os.Exit(run(os.Getenv(ModeEnv)))
}

type request struct {
	Type    string            `json:"type"`
	ID      string            `json:"id,omitempty"`
	Payload map[string]string `json:"payload"`
}

func run(mode string) int {
	fmt.Fprintln(os.Stderr, "helper backend ready")

	switch mode {
	case ModeCrash:
		fmt.Fprintln(os.Stderr, "Traceback: fatal error in brain")

		return 3
	case ModeIgnoreTerm:
		signal.Ignore(syscall.SIGTERM)
	case ModeUnsolicited:
		fmt.Println(`{"status":"ok","response":"nobody asked"}`)
	}

	out := bufio.NewWriter(os.Stdout)
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 1024*1024), 1024*1024)

	for in.Scan() {
		var req request
		if err := json.Unmarshal(in.Bytes(), &req); err != nil {
			write(out, mode, map[string]any{"status": "error", "message": "bad request"})

			continue
		}

		if mode == ModeGarbage {
			fmt.Fprintln(out, "this is not json")
			out.Flush()

			continue
		}

		resp, exit := answer(req)
		if exit >= 0 {
			return exit
		}

		if resp == nil {
			continue
		}

		if req.ID != "" {
			resp["id"] = req.ID
		}

		write(out, mode, resp)
	}

	return 0
}

// answer returns the response for req, or an exit code >= 0 to stop.
func answer(req request) (map[string]any, int) {
	if req.Type == "get_context" {
		return map[string]any{"status": "ok", "response": "ctx"}, -1
	}

	text := req.Payload["text"]

	switch text {
	case "2+2":
		return map[string]any{"status": "ok", "response": "4"}, -1
	case "boom":
		return map[string]any{"status": "error", "message": "boom"}, -1
	case "crash":
		fmt.Fprintln(os.Stderr, "Traceback: crash requested")

		return nil, 3
	case "shutdown":
		return map[string]any{"status": "shutdown"}, -1
	case "goodbye":
		return map[string]any{"status": "shutdown", "message": "goodbye"}, -1
	case "slow":
		time.Sleep(300 * time.Millisecond)

		return map[string]any{"status": "ok", "response": "slow"}, -1
	case "silent":
		return nil, -1
	case "env":
		return map[string]any{"status": "ok", "response": strings.Join(os.Environ(), "\n")}, -1
	default:
		return map[string]any{"status": "ok", "response": text}, -1
	}
}

func write(out *bufio.Writer, mode string, resp map[string]any) {
	data, _ := json.Marshal(resp)
	data = append(data, '\n')

	if mode == ModeSplit {
		for _, b := range data {
			out.WriteByte(b)
			out.Flush()
			time.Sleep(time.Millisecond)
		}

		return
	}

	out.Write(data)
	out.Flush()
}
