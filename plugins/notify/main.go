// Command notify is a cornerman plugin that shows a desktop notification
// for every event it receives. It uses notify-send on Linux and AppleScript
// on macOS.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/cornerman/internal/event"
	"github.com/ayusman/cornerman/internal/plugin"
)

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	title, body := message(req)
	if err := notify(title, body); err != nil {
		writeErrorResponse(fmt.Sprintf("notify: %v", err))
		return
	}

	writeResponse(plugin.Response{Success: true})
}

// message formats the notification for req.
func message(req plugin.Request) (string, string) {
	ev := req.Event

	var what string
	switch ev.Kind {
	case event.KindStrike:
		what = "strike"
	case event.KindTakedown:
		what = "takedown"
	default:
		what = string(ev.Kind)
	}

	sides := make([]string, len(ev.Sides))
	for i, s := range ev.Sides {
		sides[i] = string(s)
	}

	title := fmt.Sprintf("Round %d: Fighter %d %s", req.Round, ev.Fighter, what)
	body := fmt.Sprintf("frame %d", ev.Frame)
	if len(sides) > 0 {
		body += " (" + strings.Join(sides, ", ") + ")"
	}
	return title, body
}

func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		cmd = exec.Command("notify-send", "--app-name=cornerman", title, body)
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(msg string) {
	writeResponse(plugin.Response{Success: false, Error: msg})
}

func writeResponse(resp plugin.Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
