package engine

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the capability class of a rule.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindCell rules read and write only their own cell.
	KindCell
	// KindNeighborhood rules read a window around their cell and return its
	// new value.
	KindNeighborhood
	// KindPartial rules write arbitrary cells of a destination pre-filled
	// from the source.
	KindPartial
	// KindPartialNeighborhood rules write only within their radius.
	KindPartialNeighborhood
	// KindChain is a fused sequence of rules.
	KindChain
)

func (k Kind) String() string {
	switch k {
	case KindCell:
		return "cell"
	case KindNeighborhood:
		return "neighborhood"
	case KindPartial:
		return "partial"
	case KindPartialNeighborhood:
		return "partial-neighborhood"
	case KindChain:
		return "chain"
	default:
		return "invalid"
	}
}

// CellRule computes a cell's next value from its current value alone.
type CellRule[T Number] interface {
	ApplyCell(ctx *Context, state T, idx Index) T
}

// NeighborhoodRule computes a cell's next value from a window of the source
// around it. Radius must equal the extent of Neighborhood.
type NeighborhoodRule[T Number] interface {
	Neighborhood() Neighborhood
	Radius() int
	ApplyNeighborhood(ctx *Context, w *Window[T], state T, idx Index) T
}

// PartialRule writes destination cells itself. The destination holds a copy
// of the source when the pass starts.
type PartialRule[T Number] interface {
	ApplyPartial(ctx *Context, p *Partial[T], state T, idx Index)
}

// PartialNeighborhoodRule is a PartialRule that reads and writes only within
// Radius of the cell it is applied to.
type PartialNeighborhoodRule[T Number] interface {
	PartialRule[T]
	Radius() int
}

// Namer lets a rule report a readable name for logs and metrics.
type Namer interface {
	Name() string
}

// Precalculator lets a rule compute a value once per step. The value is
// available to every call of that step through Context.Precalc.
type Precalculator interface {
	Precalc(ctx *Context) any
}

// Volatile marks rules whose output can differ for identical input, such as
// rules that draw random numbers or depend on the clock.
type Volatile interface {
	Volatile() bool
}

// UncheckedReader marks neighborhood rules that assume every neighbor is on
// the grid and never consult Window.InBounds.
type UncheckedReader interface {
	ReadsUnchecked() bool
}

// CellFunc adapts a function to CellRule.
type CellFunc[T Number] func(ctx *Context, state T, idx Index) T

// ApplyCell calls f.
func (f CellFunc[T]) ApplyCell(ctx *Context, state T, idx Index) T { return f(ctx, state, idx) }

// NeighborhoodFunc adapts a function and a neighborhood to NeighborhoodRule. Its
// radius is the extent of Hood.
type NeighborhoodFunc[T Number] struct {
	Hood  Neighborhood
	Apply func(ctx *Context, w *Window[T], state T, idx Index) T
}

// Neighborhood returns f.Hood.
func (f NeighborhoodFunc[T]) Neighborhood() Neighborhood { return f.Hood }

// Radius returns the extent of f.Hood.
func (f NeighborhoodFunc[T]) Radius() int { return Extent(f.Hood) }

// ApplyNeighborhood calls f.Apply.
func (f NeighborhoodFunc[T]) ApplyNeighborhood(ctx *Context, w *Window[T], state T, idx Index) T {
	return f.Apply(ctx, w, state, idx)
}

// Rule is the tagged union of the rule capability classes. Build it with
// Cell, Neighbors, PartialCells, PartialNeighbors or Chain.
type Rule[T Number] struct {
	kind    Kind
	impl    any
	cell    CellRule[T]
	hood    NeighborhoodRule[T]
	partial PartialRule[T]
	radius  int
	members []Rule[T]
}

// Cell wraps a cell rule.
func Cell[T Number](r CellRule[T]) Rule[T] {
	return Rule[T]{kind: KindCell, impl: r, cell: r}
}

// Neighbors wraps a neighborhood rule.
func Neighbors[T Number](r NeighborhoodRule[T]) Rule[T] {
	if r == nil {
		return Rule[T]{kind: KindNeighborhood}
	}
	return Rule[T]{kind: KindNeighborhood, impl: r, hood: r, radius: r.Radius()}
}

// PartialCells wraps a partial rule.
func PartialCells[T Number](r PartialRule[T]) Rule[T] {
	return Rule[T]{kind: KindPartial, impl: r, partial: r}
}

// PartialNeighbors wraps a partial neighborhood rule.
func PartialNeighbors[T Number](r PartialNeighborhoodRule[T]) Rule[T] {
	if r == nil {
		return Rule[T]{kind: KindPartialNeighborhood}
	}
	return Rule[T]{kind: KindPartialNeighborhood, impl: r, partial: r, radius: r.Radius()}
}

// Chain fuses rules into a single pass. Only a run of cell rules, optionally
// headed by one neighborhood rule, can be fused; anything else returns
// ErrIneligibleChain.
func Chain[T Number](rules ...Rule[T]) (Rule[T], error) {
	kinds := make([]Kind, len(rules))
	for i, r := range rules {
		if err := r.validate(); err != nil {
			return Rule[T]{}, err
		}
		kinds[i] = r.kind
	}
	if !FusionEligible(kinds...) {
		return Rule[T]{}, fmt.Errorf("%w: %v", ErrIneligibleChain, kinds)
	}
	c := Rule[T]{kind: KindChain, members: slices.Clone(rules)}
	for _, r := range rules {
		c.radius = max(c.radius, r.radius)
	}
	return c, nil
}

// FusionEligible reports whether rules of the given kinds, in order, may be
// fused: all cell rules, or one neighborhood rule followed by cell rules.
func FusionEligible(kinds ...Kind) bool {
	if len(kinds) == 0 {
		return false
	}
	for i, k := range kinds {
		switch k {
		case KindCell:
		case KindNeighborhood:
			if i != 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Kind returns the capability class.
func (r Rule[T]) Kind() Kind { return r.kind }

// Radius returns the declared radius, zero for cell and partial rules.
func (r Rule[T]) Radius() int { return r.radius }

// Members returns the rules fused into a chain.
func (r Rule[T]) Members() []Rule[T] { return slices.Clone(r.members) }

// Name returns the rule's Namer name or its Go type.
func (r Rule[T]) Name() string {
	if r.kind == KindChain {
		names := make([]string, len(r.members))
		for i, m := range r.members {
			names[i] = m.Name()
		}
		return "chain(" + strings.Join(names, ",") + ")"
	}
	if n, ok := r.impl.(Namer); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r.impl)
}

func (r Rule[T]) validate() error {
	switch r.kind {
	case KindCell:
		if r.cell == nil {
			return ErrInvalidRule
		}
	case KindNeighborhood:
		if r.hood == nil {
			return ErrInvalidRule
		}
		hood := r.hood.Neighborhood()
		if hood == nil || r.radius < 0 {
			return fmt.Errorf("%w: %s", ErrMissingRadius, r.Name())
		}
		if ext := Extent(hood); ext != r.radius {
			return fmt.Errorf("%w: %s declares %d, neighborhood reaches %d", ErrRadiusMismatch, r.Name(), r.radius, ext)
		}
		if err := checkOffsetsRank(hood); err != nil {
			return err
		}
	case KindPartial:
		if r.partial == nil {
			return ErrInvalidRule
		}
	case KindPartialNeighborhood:
		if r.partial == nil {
			return ErrInvalidRule
		}
		if r.radius < 0 {
			return fmt.Errorf("%w: %s", ErrMissingRadius, r.Name())
		}
	case KindChain:
		kinds := make([]Kind, len(r.members))
		for i, m := range r.members {
			if err := m.validate(); err != nil {
				return err
			}
			kinds[i] = m.kind
		}
		if !FusionEligible(kinds...) {
			return fmt.Errorf("%w: %v", ErrIneligibleChain, kinds)
		}
	default:
		return ErrInvalidRule
	}
	return nil
}

// rank returns the dimensionality fixed by the rule's custom offsets, or 0
// when the rule works in any rank.
func (r Rule[T]) rank() int {
	switch r.kind {
	case KindNeighborhood:
		return r.hood.Neighborhood().rank()
	case KindChain:
		for _, m := range r.members {
			if n := m.rank(); n != 0 {
				return n
			}
		}
	}
	return 0
}

// leaves returns the rule itself, or the members of a chain.
func (r Rule[T]) leaves() []Rule[T] {
	if r.kind == KindChain {
		return r.members
	}
	return []Rule[T]{r}
}

func (r Rule[T]) volatile() bool {
	for _, l := range r.leaves() {
		if v, ok := l.impl.(Volatile); ok && v.Volatile() {
			return true
		}
	}
	return false
}

// precalculates reports whether any leaf computes a per-step value, which
// makes its output change even where its inputs did not.
func (r Rule[T]) precalculates() bool {
	for _, l := range r.leaves() {
		if _, ok := l.impl.(Precalculator); ok {
			return true
		}
	}
	return false
}

func (r Rule[T]) unchecked() bool {
	for _, l := range r.leaves() {
		if u, ok := l.impl.(UncheckedReader); ok && u.ReadsUnchecked() {
			return true
		}
	}
	return false
}

func (r Rule[T]) precalc(ctx *Context) any {
	if p, ok := r.impl.(Precalculator); ok {
		return p.Precalc(ctx)
	}
	return nil
}
