package ui

import (
	"fmt"

	"dyngrid/internal/core"
)

// Status is the run state shown in the HUD panel.
type Status struct {
	Model  string
	T      int
	Seed   uint64
	Paused bool
	Params core.ParameterSnapshot
}

// KeyHelp lists the viewer's key bindings.
const KeyHelp = "space pause  n step  r reset  s reseed  q quit"

// Lines lays the status out as panel text, one entry per line.
func (s Status) Lines() []string {
	title := s.Model
	if title == "" {
		title = "Controls"
	}
	state := "running"
	if s.Paused {
		state = "paused"
	}
	lines := []string{
		title,
		fmt.Sprintf("t=%d seed=%d", s.T, s.Seed),
		state,
	}
	for _, g := range s.Params.Groups {
		lines = append(lines, "", g.Name)
		for _, p := range g.Params {
			label := p.Label
			if label == "" {
				label = p.Key
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", label, p.Value))
		}
	}
	if len(s.Params.Groups) == 0 {
		lines = append(lines, "", "No parameters")
	}
	return lines
}
