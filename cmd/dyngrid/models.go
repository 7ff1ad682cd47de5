package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"dyngrid/internal/core"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the available models and their default parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listModels(cmd.OutOrStdout())
		},
	}
}

func listModels(w io.Writer) error {
	title := lipgloss.NewRenderer(w).NewStyle().Bold(true)
	for _, name := range core.Names() {
		m, err := core.Build(name, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  shape %v\n", title.Render(name), m.Shape)
		for _, line := range strings.Split(m.Parameters().String(), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	return nil
}
