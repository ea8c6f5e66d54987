// Package plugin discovers external event handlers and runs them for every
// strike or takedown detected during a run.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/ayusman/cornerman/internal/event"
)

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Executable  string       `json:"executable"`
	Events      []event.Kind `json:"events,omitempty"`
}

// Validate checks that the manifest names the plugin and its executable
// and subscribes only to known event kinds.
func (m Manifest) Validate() error {
	var errs []error
	if m.Name == "" {
		errs = append(errs, errors.New("manifest has no name"))
	}
	if m.Executable == "" {
		errs = append(errs, errors.New("manifest has no executable"))
	}
	for _, kind := range m.Events {
		if !kind.Valid() {
			errs = append(errs, fmt.Errorf("unknown event kind %q", kind))
		}
	}
	return errors.Join(errs...)
}

// Request is written to the plugin's stdin as JSON.
type Request struct {
	Run   string      `json:"run"`
	Round int         `json:"round"`
	Event event.Event `json:"event"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Handles reports whether the plugin subscribed to kind. A manifest without
// events subscribes to all of them.
func (p *Plugin) Handles(kind event.Kind) bool {
	return len(p.Manifest.Events) == 0 || slices.Contains(p.Manifest.Events, kind)
}
