package main

import (
	"os"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/spf13/cobra"
)

var mkdirTolerate bool

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <volume> <path>",
	Short: "Create a directory and its missing parents",
	Long: `Create a directory in a volume, creating missing parents on the way.

By default an existing directory is an error. With --tolerate-existing an
existing directory, or an agent answering 202 Accepted, counts as success.

Examples:
  volstore mkdir results runs/2024/01
  volstore mkdir results runs --tolerate-existing`,
	Args: cobra.ExactArgs(2),
	RunE: runMkdir,
}

func init() {
	mkdirCmd.Flags().BoolVar(&mkdirTolerate, "tolerate-existing", false, "treat existing directories as success")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	client, err := getClient(policyFor(mkdirTolerate))
	if err != nil {
		return err
	}

	entry, err := client.Mkdir(cmd.Context(), clientcli.MkdirOptions{
		Volume: args[0],
		Path:   args[1],
	})
	if err != nil {
		return err
	}
	return getFormatter().FormatDirectory(os.Stdout, entry)
}
