package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/sagarc03/volstore/agent"
	"github.com/sagarc03/volstore/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	cfgFile    string
	profile    string
	authURL    string
	masterURL  string
	username   string
	password   string
	token      string
	jsonOutput bool
	quiet      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "volstore",
	Version: version,
	Short:   "Client for remote volume storage",
	Long: `volstore - client for remote volume storage

Authenticates against the authentication endpoint, allocates and resolves
volumes through the master service, and reads and writes volume content
through the storage agent each volume reports.

A <volume> argument is either a volume id or the name of one of your
volumes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.volstore/config.yaml, env: VOLSTORE_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "", "profile name (env: VOLSTORE_PROFILE)")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-url", "", "authentication endpoint (default: "+clientcli.DefaultAuthURL+", env: VOLSTORE_AUTH_URL)")
	rootCmd.PersistentFlags().StringVar(&masterURL, "master-url", "", "master service base URL (default: "+clientcli.DefaultMasterURL+", env: VOLSTORE_MASTER_URL)")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "username (env: VOLSTORE_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "password (env: VOLSTORE_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "access token, skips authentication (env: VOLSTORE_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(allocateCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_ = getFormatter().FormatError(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
	})))
}

// getConfigPath returns the config file path from the flag, the environment
// or the default location.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if p := clientcli.ConfigPathFromEnv(); p != "" {
		return p
	}
	return clientcli.DefaultConfigPath()
}

// buildConfig merges config from the profile, env vars, and flags (flags
// take precedence).
func buildConfig() (*clientcli.Config, error) {
	var configs []*clientcli.Config

	profileName := profile
	if profileName == "" {
		profileName = clientcli.ProfileFromEnv()
	}
	explicit := cfgFile != "" || profileName != ""

	if configPath := getConfigPath(); configPath != "" {
		file, err := clientcli.LoadConfigFile(configPath)
		switch {
		case err == nil:
			p, profileErr := file.GetProfile(profileName)
			if profileErr != nil && (profileName != "" || !errors.Is(profileErr, clientcli.ErrNoProfiles)) {
				return nil, profileErr
			}
			if p != nil {
				slog.Debug("using profile", "name", p.Name, "config", configPath)
				configs = append(configs, clientcli.ConfigFromProfile(p))
			}
		case explicit:
			return nil, err
		}
	}

	configs = append(configs, clientcli.ConfigFromEnv(), &clientcli.Config{
		AuthURL:   authURL,
		MasterURL: masterURL,
		Username:  username,
		Password:  password,
		Token:     token,
	})

	return clientcli.MergeConfig(configs...), nil
}

// getFormatter returns the appropriate formatter based on flags.
func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput, quiet)
}

// getClient creates and returns a configured client.
func getClient(opts ...clientcli.Option) (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return clientcli.New(cfg, opts...)
}

// policyFor maps the --tolerate-existing flag to the agent policy.
func policyFor(tolerate bool) clientcli.Option {
	if tolerate {
		return clientcli.WithExistingPolicy(agent.ExistingTolerate)
	}
	return clientcli.WithExistingPolicy(agent.ExistingFail)
}
