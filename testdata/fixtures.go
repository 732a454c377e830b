// Package testdata holds recorded gesture scenarios and synthetic frames
// shared by the package tests.
package testdata

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

//go:embed scenarios/*.yaml
var scenariosFS embed.FS

// Scenario returns the raw YAML of a recorded scenario by file name, with or
// without the .yaml extension.
func Scenario(name string) ([]byte, error) {
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	data, err := scenariosFS.ReadFile(path.Join("scenarios", name))
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", name, err)
	}
	return data, nil
}

// ScenarioNames lists the embedded scenarios in name order.
func ScenarioNames() ([]string, error) {
	entries, err := scenariosFS.ReadDir("scenarios")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}

// Frames builds n synthetic 320x240 frames that alternate between dark and
// bright, so every frame after the first registers as motion. The caller
// closes them.
func Frames(n int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		mat := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC3)
		if i%2 == 1 {
			mat.SetTo(gocv.NewScalar(255, 255, 255, 0))
		}
		frames = append(frames, &mat)
	}
	return frames
}

// CloseFrames releases frames built by Frames.
func CloseFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
