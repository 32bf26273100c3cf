package main

import (
	"os"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <volume> [path]",
	Aliases: []string{"ls"},
	Short:   "List a volume directory",
	Long: `List the entries of a volume directory. Without a path the volume root
is listed; listing a file shows the file itself.

Examples:
  volstore list results
  volstore ls results runs/42`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	opts := clientcli.ListOptions{Volume: args[0]}
	if len(args) > 1 {
		opts.Path = args[1]
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.List(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return getFormatter().FormatList(os.Stdout, result)
}
