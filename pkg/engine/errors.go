package engine

import "errors"

// Construction errors, reported by Chain and NewRuleset.
var (
	ErrEmptyRuleset     = errors.New("engine: ruleset has no rules")
	ErrInvalidRule      = errors.New("engine: rule has no behaviour")
	ErrMissingRadius    = errors.New("engine: neighborhood rule without radius")
	ErrRadiusMismatch   = errors.New("engine: rule radius does not match its neighborhood")
	ErrIneligibleChain  = errors.New("engine: rules cannot be fused into a chain")
	ErrSparseIneligible = errors.New("engine: ruleset cannot skip inactive blocks")
)

// Setup errors, reported by Run and Resume before any step executes.
var (
	ErrNoInit            = errors.New("engine: no initial array")
	ErrRankMismatch      = errors.New("engine: rank mismatch")
	ErrTypeMismatch      = errors.New("engine: element type mismatch")
	ErrUncheckedOverflow = errors.New("engine: rule reads unchecked neighbors under RemoveOverflow")
	ErrNoPriorRun        = errors.New("engine: output holds no frame to resume from")
	ErrResumeWithInit    = errors.New("engine: resume does not accept an initial array")
	ErrStateMismatch     = errors.New("engine: precomputed state does not fit this run")
)
