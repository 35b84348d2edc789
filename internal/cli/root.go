package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// Run builds the command tree and executes it with args. Errors are returned
// rather than printed; main decides how to report them and which exit code
// to use.
//
//	func main() {
//	    if err := cli.Run(ctx, os.Args[1:], os.Stderr); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Run(ctx context.Context, args []string, stderr io.Writer) error {
	var verbose bool

	c := New(stderr, LogInfo)
	root := c.RootCommand()
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	preRun := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		preRun(cmd, args)
	}

	root.SilenceErrors = true
	root.SetArgs(args)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}
