package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sagarc03/volstore"
	"github.com/sagarc03/volstore/config"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/spf13/cobra"
)

var volumesCmd = &cobra.Command{
	Use:   "volumes",
	Short: "List volumes in the registry",
	Long: `List one page of registered volumes, newest first. Filters combine;
an empty filter matches everything.`,
	Args: cobra.NoArgs,
	RunE: runVolumes,
}

func init() {
	volumesCmd.Flags().String("owner", "", "filter by owner key, e.g. user:alice")
	volumesCmd.Flags().String("name", "", "filter by volume name")
	volumesCmd.Flags().String("tag", "", "filter by storage tag")
	volumesCmd.Flags().Int("page", 0, "zero-based page number")
	volumesCmd.Flags().Int("length", volstore.DefaultPageLength, "page length")
	volumesCmd.Flags().Bool("json", false, "print the page as JSON")

	rootCmd.AddCommand(volumesCmd)
}

func runVolumes(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	q := volstore.VolumeQuery{}
	q.OwnerKey, _ = cmd.Flags().GetString("owner")
	q.Name, _ = cmd.Flags().GetString("name")
	q.Tag, _ = cmd.Flags().GetString("tag")
	q.Page, _ = cmd.Flags().GetInt("page")
	q.Length, _ = cmd.Flags().GetInt("length")
	asJSON, _ := cmd.Flags().GetBool("json")

	backend, err := sandbox.OpenBackend(ctx, cfg.Database, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	page, err := backend.Repo.Search(ctx, q.Normalize())
	if err != nil {
		return fmt.Errorf("search volumes: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if len(page.Items) == 0 {
		fmt.Println("No volumes found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tOWNER\tNAME\tFORMAT\tTAGS\tCREATED")
	for _, v := range page.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.ID, v.OwnerKey, v.Name, v.Format, strings.Join(v.Tags, ","),
			v.CreatedAt.Local().Format(time.DateTime))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nPage %d, %d of %d volume(s)\n", page.Page, len(page.Items), page.Total)
	return nil
}
