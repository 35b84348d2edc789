package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/specgraph/pkg/embed"
	"github.com/matzehuels/specgraph/pkg/errors"
	"github.com/matzehuels/specgraph/pkg/pipeline"
)

// runFlags holds the pipeline flags shared by render, embed, draw and watch.
// Only flags the user set override the config file.
type runFlags struct {
	k           int
	skipTrivial bool
	which       string
	workers     int
	scale       int
	width       int
	height      int
	background  string
	edgeColor   string
	refresh     bool
	output      string
}

// register adds the output flags plus the layout flags, the drawing flags
// or both.
func (f *runFlags) register(cmd *cobra.Command, layout, render bool) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: the working directory)")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	if layout {
		fs.IntVar(&f.k, "k", pipeline.DefaultK, "number of eigenpairs to compute")
		fs.BoolVar(&f.skipTrivial, "skip-trivial", true, "skip the constant eigenvector and draw eigenvectors 1 and 2")
		fs.StringVar(&f.which, "which", embed.SmallestMagnitude.String(), "eigenvalue selection: SM or SA")
	}
	if render {
		fs.IntVarP(&f.workers, "workers", "w", 0, "rasterizer workers (default: GOMAXPROCS)")
		fs.IntVar(&f.scale, "scale", pipeline.DefaultScale, "integer PNG upscale factor")
		fs.IntVar(&f.width, "width", 0, "fixed canvas width (requires --height)")
		fs.IntVar(&f.height, "height", 0, "fixed canvas height (requires --width)")
		fs.StringVar(&f.background, "background", "", "background color as #rrggbb[aa]")
		fs.StringVar(&f.edgeColor, "edge-color", "", "edge color as #rrggbb[aa]")
	}
}

// apply overrides opts with every flag set on the command line.
func (f *runFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	fs := cmd.Flags()
	if fs.Changed("k") {
		opts.K = f.k
	}
	if fs.Changed("skip-trivial") {
		opts.SkipTrivial = f.skipTrivial
	}
	if fs.Changed("which") {
		w, err := embed.ParseWhich(f.which)
		if err != nil {
			return errors.Wrap(errors.ErrCodeConfig, err, "--which")
		}
		opts.Which = w
	}
	if fs.Changed("workers") {
		opts.Workers = f.workers
	}
	if fs.Changed("scale") {
		opts.Scale = f.scale
	}
	if fs.Changed("width") {
		opts.Width = f.width
	}
	if fs.Changed("height") {
		opts.Height = f.height
	}
	if fs.Changed("background") {
		c, err := pipeline.ParseHexColor(f.background)
		if err != nil {
			return err
		}
		opts.Background = c
	}
	if fs.Changed("edge-color") {
		c, err := pipeline.ParseHexColor(f.edgeColor)
		if err != nil {
			return err
		}
		opts.EdgeColor = c
	}
	opts.Refresh = f.refresh
	opts.Logger = loggerFromContext(cmd.Context())
	return opts.ValidateAndSetDefaults()
}

// outputDir returns --output or the working directory.
func (f *runFlags) outputDir(workdir string) (string, error) {
	if f.output == "" {
		return workdir, nil
	}
	if err := os.MkdirAll(f.output, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", f.output)
	}
	return f.output, nil
}

// session is the resolved state of one command invocation.
type session struct {
	workdir string
	outdir  string
	config  Config
	opts    pipeline.Options
}

// prepare validates the working directory, loads the config file and merges
// the flags into pipeline options.
func (c *CLI) prepare(cmd *cobra.Command, workdir string, flags *runFlags) (*session, error) {
	if err := errors.ValidateWorkDir(workdir); err != nil {
		return nil, err
	}
	cfg, path, err := loadConfig(c.configPath, workdir)
	if err != nil {
		return nil, err
	}
	if path != "" {
		loggerFromContext(cmd.Context()).Debug("loaded config", "path", path)
	}
	opts, err := cfg.pipelineOptions()
	if err != nil {
		return nil, err
	}
	if err := flags.apply(cmd, &opts); err != nil {
		return nil, err
	}
	outdir, err := flags.outputDir(workdir)
	if err != nil {
		return nil, err
	}
	return &session{workdir: workdir, outdir: outdir, config: cfg, opts: opts}, nil
}

// renderCommand creates the render command: graph.txt to embedding.txt and
// graph.png.
func (c *CLI) renderCommand() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "render <workdir>",
		Short: "Compute the spectral layout of <workdir>/graph.txt and draw it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.prepare(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), s)
		},
	}
	flags.register(cmd, true, true)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, s *session) error {
	runner, err := c.newRunner(ctx, s.config.Cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Computing spectral layout...")
	spinner.Start()

	g, err := runner.ParseFile(ctx, filepath.Join(s.workdir, pipeline.GraphFile))
	if err != nil {
		spinner.Stop()
		return err
	}
	res, err := runner.Execute(ctx, g, s.opts)
	spinner.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	if err := pipeline.WriteOutputs(s.outdir, res); err != nil {
		return err
	}
	prog.done("Rendered " + s.workdir)

	printResult(res)
	printFile(filepath.Join(s.outdir, pipeline.EmbeddingFile))
	printFile(filepath.Join(s.outdir, pipeline.ImageFile))
	return nil
}

// printResult shows the run summary and any warnings.
func printResult(res *pipeline.Result) {
	printSuccess("%d×%d canvas", res.Stats.Width, res.Stats.Height)
	printStats(res.Stats.Graph.Vertices, res.Stats.Graph.Edges, res.CacheInfo.EmbeddingHit)
	printDetail("eigenvalues %s", formatValues(res.Stats.Eigenvalues))
	if res.Stats.Skipped > 0 {
		printDetail("%d of %d edges skipped", res.Stats.Skipped, res.Stats.Skipped+res.Stats.Drawn)
	}
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
}

func formatValues(values []float64) string {
	s := "["
	for i, v := range values {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.6g", v)
	}
	return s + "]"
}
