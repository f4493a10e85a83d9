package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode controls the live progress display for multi-manifest runs.
type uiMode uint8

const (
	uiModeAuto uiMode = iota
	uiModeOn
	uiModeOff
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return uiModeOff, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
}

// shouldUseTUI reports whether the progress display runs. The display
// draws on stderr so reports on stdout stay pipeable; auto mode therefore
// checks stderr, not stdout.
func (m uiMode) shouldUseTUI() bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return isTerminal(os.Stderr)
	}
}
