// Package main provides a keyboard plugin that turns pages in whatever
// viewer has focus by sending key presses. It uses AppleScript on macOS and
// xdotool on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action    string          `json:"action"`
	Gesture   string          `json:"gesture"`
	Command   string          `json:"command"`
	Page      int             `json:"page"`
	FiredAtMs int64           `json:"fired_at_ms"`
	Config    json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeyConfig is the binding config. For next_page and previous_page an empty
// key means the default page key.
type KeyConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// Default keys for the page actions. Most score viewers treat the arrow
// keys as page turns.
const (
	defaultNextKey     = "right"
	defaultPreviousKey = "left"
)

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// xdotoolModifiers maps modifier names to xdotool key prefixes.
var xdotoolModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

// namedKey holds the macOS key code and xdotool keysym of a non-printing key.
type namedKey struct {
	macCode int
	keysym  string
}

var namedKeys = map[string]namedKey{
	"left":     {123, "Left"},
	"right":    {124, "Right"},
	"down":     {125, "Down"},
	"up":       {126, "Up"},
	"pageup":   {116, "Prior"},
	"pagedown": {121, "Next"},
	"home":     {115, "Home"},
	"end":      {119, "End"},
	"space":    {49, "space"},
	"return":   {36, "Return"},
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	kc, err := keyFor(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	argv, err := buildCommand(runtime.GOOS, kc)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}
	if err := run(argv); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	data, _ := json.Marshal(map[string]string{"key": kc.Key})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

// keyFor resolves the key to press for req.
func keyFor(req Request) (KeyConfig, error) {
	var kc KeyConfig
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &kc); err != nil {
			return KeyConfig{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	kc.Key = strings.TrimSpace(kc.Key)

	switch req.Action {
	case "next_page":
		if kc.Key == "" {
			kc.Key = defaultNextKey
		}
	case "previous_page":
		if kc.Key == "" {
			kc.Key = defaultPreviousKey
		}
	case "keystroke":
		if kc.Key == "" {
			return KeyConfig{}, fmt.Errorf("key is required")
		}
	default:
		return KeyConfig{}, fmt.Errorf("unknown action: %s", req.Action)
	}
	return kc, nil
}

// buildCommand returns the command line that presses kc on goos.
func buildCommand(goos string, kc KeyConfig) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"osascript", "-e", buildKeystrokeScript(kc.Key, kc.Modifiers)}, nil
	case "linux":
		return []string{"xdotool", "key", "--clearmodifiers", xdotoolKey(kc.Key, kc.Modifiers)}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// buildKeystrokeScript generates an AppleScript for the given key and modifiers.
func buildKeystrokeScript(key string, modifiers []string) string {
	press := fmt.Sprintf("keystroke %q", key)
	if nk, ok := namedKeys[strings.ToLower(key)]; ok {
		press = fmt.Sprintf("key code %d", nk.macCode)
	}

	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, strings.Join(appleModifiers, ", "))
}

// xdotoolKey builds an xdotool key chord such as "ctrl+Next".
func xdotoolKey(key string, modifiers []string) string {
	sym := key
	if nk, ok := namedKeys[strings.ToLower(key)]; ok {
		sym = nk.keysym
	}

	parts := make([]string, 0, len(modifiers)+1)
	for _, mod := range modifiers {
		if m, ok := xdotoolModifiers[strings.ToLower(mod)]; ok {
			parts = append(parts, m)
		}
	}
	return strings.Join(append(parts, sym), "+")
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func run(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
