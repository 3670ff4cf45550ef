package auth

import (
	"fmt"
	"strings"
)

// Mode selects whether the gateway checks tokens at all.
type Mode string

const (
	// ModeEnforced runs the full token and role checks.
	ModeEnforced Mode = "enforced"
	// ModeOpen treats every request as authorized. Meant for trusted deployments.
	ModeOpen Mode = "open"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeEnforced:
		return ModeEnforced, nil
	case ModeOpen:
		return ModeOpen, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", s)
	}
}
