package engine

// pass is one whole-grid application: a single rule or a fused chain.
type pass[T Number] struct {
	name    string
	kind    Kind
	radius  int
	head    NeighborhoodRule[T]
	hood    *compiledHood
	cells   []CellRule[T]
	partial PartialRule[T]
	leaves  []Rule[T]
}

// sequencer applies the compiled passes of a ruleset to a replicate. It is
// immutable after construction and shared by all replicates of a run.
type sequencer[T Number] struct {
	passes    []pass[T]
	sparse    bool
	shape     []int
	blocks    []int
	blockSize int
	overflow  Overflow
}

func newSequencer[T Number](rs *Ruleset[T], shape []int) *sequencer[T] {
	rank := len(shape)
	padded := make([]int, rank)
	for d, n := range shape {
		padded[d] = n + 2*rs.radius
	}
	strides := stridesFor(padded)
	blocks := make([]int, rank)
	for d, n := range shape {
		blocks[d] = (n + rs.blockSize - 1) / rs.blockSize
	}
	s := &sequencer[T]{
		sparse:    rs.sparse,
		shape:     shape,
		blocks:    blocks,
		blockSize: rs.blockSize,
		overflow:  rs.overflow,
	}
	for _, r := range rs.rules {
		p := pass[T]{name: r.Name(), kind: r.kind, radius: r.radius, leaves: r.leaves()}
		switch r.kind {
		case KindPartial, KindPartialNeighborhood:
			p.partial = r.partial
		default:
			for _, l := range p.leaves {
				switch l.kind {
				case KindNeighborhood:
					p.head = l.hood
					p.hood = compileHood(l.hood.Neighborhood(), rank, strides)
				case KindCell:
					p.cells = append(p.cells, l.cell)
				}
			}
		}
		s.passes = append(s.passes, p)
	}
	return s
}

// step advances a replicate by one timestep: every pass in order, each
// followed by a padding refresh and a buffer swap.
func (s *sequencer[T]) step(r *replicate[T], t int) {
	r.ctx.T = t
	r.evaluated, r.skipped = 0, 0
	for i := range s.passes {
		p := &s.passes[i]
		for j, l := range p.leaves {
			r.pre[i][j] = l.precalc(&r.ctx)
		}
		s.run(p, r.pre[i], r)
		r.grid.syncPadding(r.grid.dest)
		r.grid.Swap()
	}
	if s.sparse {
		r.status.advance()
	}
}

func (s *sequencer[T]) run(p *pass[T], pre []any, r *replicate[T]) {
	g := r.grid
	partial := p.kind == KindPartial || p.kind == KindPartialNeighborhood
	if partial {
		copy(g.dest, g.source)
		r.partial.radius = -1
		if p.kind == KindPartialNeighborhood {
			r.partial.radius = p.radius
		}
		if s.sparse && p.kind == KindPartial {
			r.status.markAll()
		}
	} else {
		r.win.src = g.source
		r.win.hood = p.hood
		r.win.radius = p.radius
	}
	bs := s.blockSize
	zero := make([]int, len(s.blocks))
	eachInBox(zero, s.blocks, func(b []int) {
		for d := range b {
			r.lo[d] = b[d] * bs
			r.hi[d] = min(r.lo[d]+bs, s.shape[d])
		}
		if s.sparse && !r.status.Active(r.status.blockIndex(b)) {
			if !partial {
				g.copyBlock(r.lo, r.hi)
			}
			r.skipped++
			return
		}
		r.evaluated++
		eachInBox(r.lo, r.hi, func(c []int) {
			s.apply(p, pre, r, c)
		})
		if s.sparse && p.kind == KindPartialNeighborhood {
			r.status.markBlock(r.lo, r.hi, 2*p.radius)
		}
	})
}

func (s *sequencer[T]) apply(p *pass[T], pre []any, r *replicate[T], c []int) {
	g := r.grid
	idx := Index(c)
	off := g.Offset(idx)
	old := g.source[off]
	if p.partial != nil {
		r.partial.center = idx
		r.ctx.precalc = pre[0]
		p.partial.ApplyPartial(&r.ctx, r.partial, old, idx)
		return
	}
	state := old
	k := 0
	if p.head != nil {
		r.win.center = off
		r.win.idx = idx
		r.ctx.precalc = pre[0]
		state = p.head.ApplyNeighborhood(&r.ctx, &r.win, state, idx)
		k = 1
	}
	for j, cr := range p.cells {
		r.ctx.precalc = pre[k+j]
		state = cr.ApplyCell(&r.ctx, state, idx)
	}
	g.dest[off] = state
	if s.sparse && state != old {
		r.status.markCell(c, p.radius)
	}
}
