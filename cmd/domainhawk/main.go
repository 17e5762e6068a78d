// Command domainhawk is the CLI entrypoint: a cobra root command wiring
// the scan subcommand, adapted from the teacher's cmd/webstalk/main.go
// root-command conventions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domainhawk",
		Short: "Recursive time-sliced GitHub search for a keyword or domain",
		Long: `domainhawk discovers public repositories, code files, and gists mentioning
a given domain or keyword on GitHub, within a date window, and streams
canonical URLs to downstream secret-scanning tools.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the domainhawk version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "domainhawk", version)
			return nil
		},
	}
}

// exitInterrupt is a sentinel error wrapping the user-interrupt exit code.
type exitInterrupt struct{}

func (exitInterrupt) Error() string { return "interrupted" }

func exitCodeFor(err error) int {
	if _, ok := err.(exitInterrupt); ok {
		return 130
	}
	return 1
}
