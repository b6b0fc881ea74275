package config

import (
	"os/exec"
	"sort"
)

// DetectedBrowser is a known app-mode capable browser found on PATH.
type DetectedBrowser struct {
	Name           string
	Path           string
	ProposedConfig string // browser_command using this browser
}

var knownBrowsers = map[string]string{
	"chromium":             "chromium --new-window --app={{url}}",
	"chromium-browser":     "chromium-browser --new-window --app={{url}}",
	"google-chrome":        "google-chrome --new-window --app={{url}}",
	"google-chrome-stable": "google-chrome-stable --new-window --app={{url}}",
	"brave-browser":        "brave-browser --new-window --app={{url}}",
	"microsoft-edge":       "microsoft-edge --new-window --app={{url}}",
	"firefox":              "firefox --new-window {{url}}",
}

// DetectBrowsers scans PATH for known browsers, sorted by name.
func DetectBrowsers() []DetectedBrowser {
	return detectBrowsers(exec.LookPath)
}

func detectBrowsers(lookPath func(string) (string, error)) []DetectedBrowser {
	detected := make([]DetectedBrowser, 0, len(knownBrowsers))
	for name, command := range knownBrowsers {
		path, err := lookPath(name)
		if err != nil {
			continue
		}
		detected = append(detected, DetectedBrowser{
			Name:           name,
			Path:           path,
			ProposedConfig: command,
		})
	}
	sort.Slice(detected, func(i, j int) bool {
		return detected[i].Name < detected[j].Name
	})
	return detected
}
