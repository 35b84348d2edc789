package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// embedCommand creates the embed command: graph.txt to embedding.txt only.
func (c *CLI) embedCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "embed <workdir>",
		Short: "Write the spectral coordinates of <workdir>/graph.txt to embedding.txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.prepare(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			return c.runEmbed(cmd.Context(), s)
		},
	}
	flags.register(cmd, true, false)
	return cmd
}

func (c *CLI) runEmbed(ctx context.Context, s *session) error {
	runner, err := c.newRunner(ctx, s.config.Cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, err := runner.ParseFile(ctx, filepath.Join(s.workdir, pipeline.GraphFile))
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Computing eigenvectors...")
	spinner.Start()
	layout, hit, err := runner.LayoutWithCacheInfo(ctx, g, s.opts)
	spinner.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	if err := pipeline.WriteEmbedding(s.outdir, layout.Coords); err != nil {
		return err
	}
	prog.done("Embedded " + s.workdir)

	printStats(g.N(), g.EdgeCount(), hit)
	printDetail("eigenvalues %s", formatValues(layout.Embedding.Values))
	printFile(filepath.Join(s.outdir, pipeline.EmbeddingFile))
	return nil
}
