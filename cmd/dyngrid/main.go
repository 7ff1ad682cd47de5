// Command dyngrid runs grid models from the terminal: print them, store
// them, resume stored runs and export them as GIFs.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	_ "dyngrid/internal/sims/briansbrain"
	_ "dyngrid/internal/sims/ecology"
	_ "dyngrid/internal/sims/elementary"
	_ "dyngrid/internal/sims/life"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dyngrid",
		Short: "Run cellular automata and other grid models",
		Long: `dyngrid steps grid models forward in time and sends their frames to the
terminal, to memory or to a badger store that can be resumed later.

Examples:
  dyngrid models
  dyngrid run -m life -n 50 --fps 10
  dyngrid run -m ecology -p w=96 -p h=48 -r 4 -o store --store ./frames
  dyngrid resume --store ./frames -n 100
  dyngrid gif --store ./frames --out forest.gif --scale 4`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newResumeCmd(), newModelsCmd(), newGIFCmd())
	return root
}
