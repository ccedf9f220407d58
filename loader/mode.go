package loader

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Mode selects how a run's failure is handled.
type Mode int

const (
	// ModeSafe prints the failure and its trace, then returns normally.
	ModeSafe Mode = iota
	// ModeStrict panics with the failure, leaving it uncaught.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeStrict:
		return "strict"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "safe" or "strict". The empty string is safe.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "safe":
		return ModeSafe, nil
	case "strict":
		return ModeStrict, nil
	default:
		return ModeSafe, fmt.Errorf("unknown mode %q (want safe or strict)", s)
	}
}

func (m *Mode) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*m = parsed
	return nil
}

func (m Mode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Run runs once in the given mode.
func (l *Loader) Run(ctx context.Context, mode Mode) *Result {
	if mode == ModeStrict {
		return l.RunStrict(ctx)
	}
	return l.RunSafe(ctx)
}

// RunSafe runs once and catches every failure: the message and trace go to
// stderr and the result is nil.
func (l *Loader) RunSafe(ctx context.Context) *Result {
	res, err := l.RunOnce(ctx)
	if err != nil {
		l.log.Debug("run failed", zap.Error(err))
		printFailure(l.stderr, err)
		return nil
	}
	return res
}

// RunStrict runs once and panics with the *errors.Error of any failure.
func (l *Loader) RunStrict(ctx context.Context) *Result {
	res, err := l.RunOnce(ctx)
	if err != nil {
		panic(err)
	}
	return res
}
