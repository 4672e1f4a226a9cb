// Package cmd implements the reportctl commands.
package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackmichael/spotreport/cmd/reportctl/internal/cli"
	"github.com/blackmichael/spotreport/internal/apiclient"
)

// ServerEnvVar sets the default server URL.
const ServerEnvVar = "SPOTREPORT_URL"

var (
	console *cli.Console
	client  *apiclient.Client

	flagServer  string
	flagQuiet   bool
	flagJSON    bool
	flagTimeout time.Duration
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Manage a spotreport server from the command line.",
		Long: `Manage a spotreport server from the command line.

For example:
  reportctl kinds add pothole --description "Road surface damage"
  reportctl submit photo.jpg --kind pothole --lat 60.17 --lon 24.94
  reportctl posts list`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			console = cli.NewWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr(), flagQuiet)
			client = apiclient.NewClient(flagServer)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv(ServerEnvVar)
	if server == "" {
		server = "http://localhost:8000"
	}
	root.PersistentFlags().StringVarP(&flagServer, "server", "s", server, "Server URL (or set "+ServerEnvVar+")")
	root.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only print results and errors")
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "Overall request timeout")

	root.AddCommand(newKindsCmd(), newPostsCmd(), newSubmitCmd(), newAnnotateCmd())
	return root
}

// Execute runs the command tree and prints any error.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		if console == nil {
			console = cli.New(false)
		}
		console.Error("%v", err)
		return err
	}
	return nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), flagTimeout)
}
