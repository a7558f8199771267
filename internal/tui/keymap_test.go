package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func TestDefaultKeyMap_AllBindingsDefined(t *testing.T) {
	km := DefaultKeyMap()

	bindings := []struct {
		name    string
		binding key.Binding
	}{
		{"Quit", km.Quit},
		{"Pause", km.Pause},
		{"Refresh", km.Refresh},
		{"Up", km.Up},
		{"Down", km.Down},
		{"PageUp", km.PageUp},
		{"PageDown", km.PageDown},
	}

	for _, b := range bindings {
		t.Run(b.name, func(t *testing.T) {
			if !b.binding.Enabled() {
				t.Errorf("expected %s binding to be enabled", b.name)
			}
			keys := b.binding.Keys()
			if len(keys) == 0 {
				t.Errorf("expected %s binding to have at least one key", b.name)
			}
		})
	}
}

// TestDefaultKeyMap_DashboardKeys pins the keys the status footer advertises
// for the dashboard controls.
func TestDefaultKeyMap_DashboardKeys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		want    []string
	}{
		{"Quit", km.Quit, []string{"q", "ctrl+c", "esc"}},
		{"Pause", km.Pause, []string{"p", " "}},
		{"Refresh", km.Refresh, []string{"r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := tt.binding.Keys()
			have := make(map[string]bool, len(keys))
			for _, k := range keys {
				have[k] = true
			}
			for _, k := range tt.want {
				if !have[k] {
					t.Errorf("expected %s binding to include %q, got %v", tt.name, k, keys)
				}
			}
		})
	}
}
