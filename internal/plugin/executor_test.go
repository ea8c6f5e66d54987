package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/cornerman/internal/event"
	"github.com/ayusman/cornerman/internal/pose"
)

// scriptPlugin writes a shell script plugin into a temporary directory.
func scriptPlugin(t *testing.T, name, script string, events ...event.Kind) *Plugin {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name+".sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Version:    "1.0.0",
			Executable: name + ".sh",
			Events:     events,
		},
		Path:       dir,
		Executable: path,
	}
}

func strikeRequest() *Request {
	return &Request{
		Run:   "run-1",
		Round: 2,
		Event: event.Event{Kind: event.KindStrike, Fighter: 1, Sides: []pose.Side{pose.Right}, Frame: 90},
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, "ok", `echo '{"success":true,"data":{"message":"hello world"}}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := scriptPlugin(t, "echo", `INPUT=$(cat)
echo "{\"success\":true,\"data\":$INPUT}"
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var received Request
	if err := json.Unmarshal(response.Data, &received); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if received.Run != "run-1" || received.Round != 2 {
		t.Errorf("unexpected run/round %q/%d", received.Run, received.Round)
	}
	if received.Event.Kind != event.KindStrike || received.Event.Frame != 90 {
		t.Errorf("unexpected event %+v", received.Event)
	}
}

func TestExecutor_Execute_WorkingDirectory(t *testing.T) {
	plugin := scriptPlugin(t, "pwd", `echo "{\"success\":true,\"data\":\"$(pwd)\"}"
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var dir string
	if err := json.Unmarshal(response.Data, &dir); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	want, _ := filepath.EvalSymlinks(plugin.Path)
	got, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("plugin ran in %q, want %q", got, want)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := scriptPlugin(t, "slow", "sleep 10\n")

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, strikeRequest())
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, "fail", `echo '{"success":false,"error":"webhook unreachable"}'
`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error != "webhook unreachable" {
		t.Errorf("unexpected error %q", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, "garbage", "echo 'not json'\n")

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse plugin response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, "exit", "echo 'boom' >&2\nexit 1\n")

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, strikeRequest())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}

func TestNewExecutor_DefaultTimeout(t *testing.T) {
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", e.timeout, DefaultTimeout)
	}
	if e := NewExecutor(3 * time.Second); e.timeout != 3*time.Second {
		t.Errorf("timeout = %s, want 3s", e.timeout)
	}
}

func TestPlugin_Handles(t *testing.T) {
	all := &Plugin{}
	if !all.Handles(event.KindStrike) || !all.Handles(event.KindTakedown) {
		t.Error("plugin without events should handle everything")
	}

	takedowns := &Plugin{Manifest: Manifest{Events: []event.Kind{event.KindTakedown}}}
	if takedowns.Handles(event.KindStrike) {
		t.Error("takedown plugin should not handle strikes")
	}
	if !takedowns.Handles(event.KindTakedown) {
		t.Error("takedown plugin should handle takedowns")
	}
}
