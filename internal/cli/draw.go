package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/io"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// drawCommand creates the draw command: graph.txt plus an existing
// embedding.txt to graph.png. Coordinates are matched to vertices by their
// dense index, i.e. the order in which ids first appear in graph.txt.
func (c *CLI) drawCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "draw <workdir>",
		Short: "Draw <workdir>/graph.txt at the coordinates in embedding.txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.prepare(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			return c.runDraw(cmd.Context(), s)
		},
	}
	flags.register(cmd, false, true)
	return cmd
}

func (c *CLI) runDraw(ctx context.Context, s *session) error {
	coordsPath := filepath.Join(s.workdir, pipeline.EmbeddingFile)
	if err := errors.RequireFile(coordsPath); err != nil {
		return err
	}

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
	coords, err := io.ImportCoords(coordsPath)
	if err != nil {
		return err
	}
	if n, _ := coords.Dims(); n != g.N() {
		c.Logger.Warn("coordinate count differs from vertex count", "coords", n, "vertices", g.N())
	}

	out, hit, err := runner.RenderWithCacheInfo(ctx, g, coords, s.opts)
	if err != nil {
		return err
	}
	if err := pipeline.WriteImage(s.outdir, out.PNG); err != nil {
		return err
	}
	prog.done("Drew " + s.workdir)

	printSuccess("%d×%d canvas", out.Placement.Width, out.Placement.Height)
	printStats(g.N(), g.EdgeCount(), hit)
	if out.Stats.Skipped > 0 {
		printWarning("%d of %d edges skipped", out.Stats.Skipped, out.Stats.Skipped+out.Stats.Drawn)
	}
	if out.Placement.Degenerate {
		printWarning("all vertices share a coordinate; the drawing collapses onto a line")
	}
	printFile(filepath.Join(s.outdir, pipeline.ImageFile))
	return nil
}
