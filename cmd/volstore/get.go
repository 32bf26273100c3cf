package main

import (
	"io"
	"os"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/spf13/cobra"
)

var (
	getOutput string
	getStdout bool
)

var getCmd = &cobra.Command{
	Use:   "get <volume> <remote-path> [local-path]",
	Short: "Download a file from a volume",
	Long: `Download a file from a volume. Without a local path the file is saved
under its base name in the current directory.

Examples:
  volstore get results runs/42/summary.json
  volstore get results runs/42/summary.json ./summary.json
  volstore get --stdout results runs/42/summary.json | jq .`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file path")
	getCmd.Flags().BoolVar(&getStdout, "stdout", false, "write to stdout")
}

func runGet(cmd *cobra.Command, args []string) error {
	opts := clientcli.DownloadOptions{
		Volume:     args[0],
		RemotePath: args[1],
	}
	if len(args) > 2 {
		opts.LocalPath = args[2]
	}
	if getOutput != "" {
		opts.LocalPath = getOutput
	}
	if getStdout {
		opts.LocalPath = "-"
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	result, reader, err := client.Download(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if reader != nil {
		defer func() { _ = reader.Close() }()
		written, err := io.Copy(os.Stdout, reader)
		if err != nil {
			return err
		}
		result.Size = written
		// metadata goes to stderr so stdout stays the file content
		if jsonOutput {
			return getFormatter().FormatDownload(os.Stderr, result)
		}
		return nil
	}

	return getFormatter().FormatDownload(os.Stdout, result)
}
