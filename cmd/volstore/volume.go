package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sagarc03/volstore/clientcli"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and print an access token",
	Long: `Authenticate with the configured username and password and print the
access token. The token can be reused with --token or VOLSTORE_TOKEN.

Examples:
  volstore login -u alice --password secret
  export VOLSTORE_TOKEN=$(volstore login -q)`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var (
	allocateTags     []string
	allocateMetadata []string
)

var allocateCmd = &cobra.Command{
	Use:   "allocate <name>",
	Short: "Allocate a new volume",
	Long: `Allocate a new data directory volume owned by the configured user.
Volume names are not unique: allocating twice yields two volumes, and a
name lookup resolves to the newest one.

Examples:
  volstore allocate results
  volstore allocate scratch --tag tmp --tag run-42
  volstore allocate results --meta project=alpha`,
	Args: cobra.ExactArgs(1),
	RunE: runAllocate,
}

var infoCmd = &cobra.Command{
	Use:   "info <volume>",
	Short: "Show a volume",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var (
	searchOwner  string
	searchName   string
	searchTag    string
	searchPage   int
	searchLength int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search volumes",
	Long: `Search volumes, newest first. Without --owner the volumes of the
configured user are searched.

Examples:
  volstore search
  volstore search --tag tmp
  volstore search --owner user:bob --page 1 --length 20`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	allocateCmd.Flags().StringSliceVarP(&allocateTags, "tag", "t", nil, "storage tag, repeatable")
	allocateCmd.Flags().StringArrayVarP(&allocateMetadata, "meta", "m", nil, "metadata as key=value, repeatable")

	searchCmd.Flags().StringVar(&searchOwner, "owner", "", "owner key (default: user:<username>)")
	searchCmd.Flags().StringVar(&searchName, "name", "", "volume name")
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "storage tag")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "zero-based page number")
	searchCmd.Flags().IntVarP(&searchLength, "length", "l", 100, "page length (max: 1000)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	t, err := client.Login(cmd.Context())
	if err != nil {
		return err
	}
	return getFormatter().FormatToken(os.Stdout, t)
}

func runAllocate(cmd *cobra.Command, args []string) error {
	metadata, err := parseMetadata(allocateMetadata)
	if err != nil {
		return err
	}

	client, err := getClient()
	if err != nil {
		return err
	}

	vol, err := client.Allocate(cmd.Context(), clientcli.AllocateOptions{
		Name:     args[0],
		Tags:     allocateTags,
		Metadata: metadata,
	})
	if err != nil {
		return err
	}
	return getFormatter().FormatVolume(os.Stdout, vol)
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	vol, err := client.Volume(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return getFormatter().FormatVolume(os.Stdout, vol)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	list, err := client.Search(cmd.Context(), clientcli.SearchOptions{
		OwnerKey: searchOwner,
		Name:     searchName,
		Tag:      searchTag,
		Page:     searchPage,
		Length:   searchLength,
	})
	if err != nil {
		return err
	}
	return getFormatter().FormatVolumeList(os.Stdout, list)
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
