package engine

import (
	"fmt"
	"slices"
)

// DefaultBlockSize is the side length of an activity block when none is set.
const DefaultBlockSize = 16

// Ruleset is an ordered, immutable sequence of rules with the overflow policy
// they run under.
type Ruleset[T Number] struct {
	rules     []Rule[T]
	overflow  Overflow
	init      *Array[T]
	sparse    bool
	blockSize int
	radius    int
	rank      int
}

type rulesetOptions struct {
	overflow  Overflow
	init      any
	sparse    bool
	blockSize int
}

// RulesetOption configures NewRuleset.
type RulesetOption func(*rulesetOptions)

// WithOverflow sets the overflow policy. The default is RemoveOverflow.
func WithOverflow(o Overflow) RulesetOption {
	return func(opts *rulesetOptions) { opts.overflow = o }
}

// WithDefaultInit binds an initial array used when Run gets none.
func WithDefaultInit[T Number](a *Array[T]) RulesetOption {
	return func(opts *rulesetOptions) { opts.init = a }
}

// WithSparse enables skipping blocks whose neighborhood did not change in
// the previous step. Only a single rule that is neither Volatile nor a
// Precalculator qualifies.
func WithSparse() RulesetOption {
	return func(opts *rulesetOptions) { opts.sparse = true }
}

// WithBlockSize sets the activity block side length. It is raised to the
// ruleset radius when smaller.
func WithBlockSize(n int) RulesetOption {
	return func(opts *rulesetOptions) { opts.blockSize = n }
}

// NewRuleset validates rules and binds them to the options. Chains are
// checked for fusion eligibility, neighborhood rules for consistent radii.
func NewRuleset[T Number](rules []Rule[T], opts ...RulesetOption) (*Ruleset[T], error) {
	o := rulesetOptions{overflow: RemoveOverflow{}, blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if len(rules) == 0 {
		return nil, ErrEmptyRuleset
	}
	rs := &Ruleset[T]{
		rules:    slices.Clone(rules),
		overflow: o.overflow,
		sparse:   o.sparse,
	}
	if rs.overflow == nil {
		rs.overflow = RemoveOverflow{}
	}
	for i, r := range rs.rules {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rs.radius = max(rs.radius, r.radius)
		if n := r.rank(); n != 0 {
			if rs.rank != 0 && rs.rank != n {
				return nil, fmt.Errorf("%w: rule %d is rank %d, earlier rules rank %d", ErrRankMismatch, i, n, rs.rank)
			}
			rs.rank = n
		}
	}
	rs.blockSize = max(o.blockSize, rs.radius, 1)
	if rs.sparse {
		if len(rs.rules) != 1 {
			return nil, fmt.Errorf("%w: %d passes per step", ErrSparseIneligible, len(rs.rules))
		}
		if rs.rules[0].volatile() {
			return nil, fmt.Errorf("%w: %s is volatile", ErrSparseIneligible, rs.rules[0].Name())
		}
		if rs.rules[0].precalculates() {
			return nil, fmt.Errorf("%w: %s precalculates per step", ErrSparseIneligible, rs.rules[0].Name())
		}
	}
	if o.init != nil {
		init, ok := o.init.(*Array[T])
		if !ok {
			return nil, fmt.Errorf("%w: default init is %T", ErrTypeMismatch, o.init)
		}
		if err := rs.checkRank(init); err != nil {
			return nil, err
		}
		rs.init = init
	}
	return rs, nil
}

// Rules returns the rules in application order.
func (rs *Ruleset[T]) Rules() []Rule[T] { return slices.Clone(rs.rules) }

// Overflow returns the overflow policy.
func (rs *Ruleset[T]) Overflow() Overflow { return rs.overflow }

// Init returns the default initial array, or nil.
func (rs *Ruleset[T]) Init() *Array[T] { return rs.init }

// Radius returns the largest radius of any rule, which is also the grid
// padding.
func (rs *Ruleset[T]) Radius() int { return rs.radius }

// Sparse reports whether inactive blocks are skipped.
func (rs *Ruleset[T]) Sparse() bool { return rs.sparse }

// BlockSize returns the activity block side length.
func (rs *Ruleset[T]) BlockSize() int { return rs.blockSize }

func (rs *Ruleset[T]) checkRank(a *Array[T]) error {
	if rs.rank != 0 && a.Rank() != rs.rank {
		return fmt.Errorf("%w: array is rank %d, rules expect rank %d", ErrRankMismatch, a.Rank(), rs.rank)
	}
	return nil
}

func (rs *Ruleset[T]) checkOverflow() error {
	if rs.overflow.wraps() {
		return nil
	}
	for _, r := range rs.rules {
		if r.unchecked() {
			return fmt.Errorf("%w: %s", ErrUncheckedOverflow, r.Name())
		}
	}
	return nil
}
