package domain

import (
	"fmt"
	"strings"
)

type Mode string

const (
	ModeFast      Mode = "fast"
	ModeWebSearch Mode = "web"
	ModeDeep      Mode = "deep"
)

// Modes lists every selectable mode in display order.
var Modes = []Mode{ModeFast, ModeWebSearch, ModeDeep}

func (m Mode) Valid() bool {
	switch m {
	case ModeFast, ModeWebSearch, ModeDeep:
		return true
	default:
		return false
	}
}

func (m Mode) Label() string {
	switch m {
	case ModeFast:
		return "Fast answer"
	case ModeWebSearch:
		return "Web search"
	case ModeDeep:
		return "Deep research"
	default:
		return string(m)
	}
}

func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return ModeFast, nil
	}
	if !mode.Valid() {
		return "", fmt.Errorf("%w %q (want one of fast, web, deep)", ErrUnknownMode, raw)
	}

	return mode, nil
}
