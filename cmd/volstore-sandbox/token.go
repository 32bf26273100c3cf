package main

import (
	"fmt"

	"github.com/sagarc03/volstore/config"
	"github.com/sagarc03/volstore/sandbox"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue an access token without a password",
	Long: `Sign an access token for username with the configured secret. The
token is accepted by any server sharing the secret and issuer, which makes
it handy for scripted test setups.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("secret", "", "token signing secret (env: VOLSTORE_SANDBOX_AUTH_SECRET)")

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	tokens, err := sandbox.NewTokens([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("create token service: %w", err)
	}

	token, err := tokens.Issue(args[0])
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Println(token)
	return nil
}
