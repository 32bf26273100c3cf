package main

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	putRecursive bool
	putTolerate  bool
)

var putCmd = &cobra.Command{
	Use:   "put <volume> <local-path> [remote-path]",
	Short: "Upload files into a volume",
	Long: `Upload a file, or with -r a directory tree, into a volume. Missing
remote parent directories are created first. Existing remote files are never
overwritten.

A remote path ending in "/" keeps the local file name. Without a remote
path a file keeps its normalized local path and a tree lands at the volume
root.

Examples:
  volstore put results ./report.pdf
  volstore put results ./report.pdf docs/
  volstore put -r results ./output runs/42`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPut,
}

func init() {
	putCmd.Flags().BoolVarP(&putRecursive, "recursive", "r", false, "upload directory recursively")
	putCmd.Flags().BoolVar(&putTolerate, "tolerate-existing", false, "treat existing parent directories created elsewhere as success")
}

func runPut(cmd *cobra.Command, args []string) error {
	opts := clientcli.UploadOptions{
		Volume:    args[0],
		LocalPath: args[1],
		Recursive: putRecursive,
	}
	if len(args) > 2 {
		opts.RemotePath = args[2]
	}

	client, err := getClient(policyFor(putTolerate))
	if err != nil {
		return err
	}

	if bar := newUploadBar(opts.LocalPath); bar != nil {
		opts.OnUpload = func(r clientcli.UploadResult) {
			_ = bar.Add(1)
		}
		defer func() { _ = bar.Finish() }()
	}

	results, err := client.Upload(cmd.Context(), opts)
	if err != nil {
		if len(results) > 0 {
			_ = getFormatter().FormatUpload(os.Stdout, results)
		}
		return err
	}

	return getFormatter().FormatUpload(os.Stdout, results)
}

// newUploadBar returns a progress bar over the regular files below
// localPath, or nil when progress output is off or there is a single file.
func newUploadBar(localPath string) *progressbar.ProgressBar {
	if quiet || jsonOutput || !putRecursive {
		return nil
	}

	count := 0
	_ = filepath.WalkDir(localPath, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && d.Type().IsRegular() {
			count++
		}
		return nil
	})
	if count < 2 {
		return nil
	}

	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
