package install

import (
	"gitlab.com/tozd/go/errors"
)

// 🎯 Strategy selects which steps an installation plan includes
type Strategy string

const (
	// StrategyLocal remediates the tree in place
	StrategyLocal Strategy = "local"
	// StrategyUser installs the remediated tree under the user's data dir
	StrategyUser Strategy = "user"
	// StrategySystem installs the remediated tree system-wide
	StrategySystem Strategy = "system"
	// StrategyPackaged builds archive artifacts after remediation
	StrategyPackaged Strategy = "packaged"
	// StrategyDistributable builds a self-contained shareable distribution
	StrategyDistributable Strategy = "distributable"
)

// Strategies returns the fixed enumerated set, in presentation order
func Strategies() []Strategy {
	return []Strategy{
		StrategyLocal,
		StrategyUser,
		StrategySystem,
		StrategyPackaged,
		StrategyDistributable,
	}
}

// ParseStrategy parses a strategy identifier
func ParseStrategy(s string) (Strategy, error) {
	for _, known := range Strategies() {
		if s == string(known) {
			return known, nil
		}
	}
	return "", errors.Errorf("unknown strategy %q (expected one of local, user, system, packaged, distributable)", s)
}

// NeedsPackaging reports whether the strategy produces shareable artifacts
func (s Strategy) NeedsPackaging() bool {
	return s == StrategyPackaged || s == StrategyDistributable
}

// String returns the strategy identifier
func (s Strategy) String() string {
	return string(s)
}
