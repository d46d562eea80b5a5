package main

import (
	"fmt"
	"os"

	"golang-ea-automation/internal/orchestrator/config"
	"golang-ea-automation/pkg/auth"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ea-automation",
	Short: "Operator CLI for the EA automation orchestrator",
	Long:  `Operator helpers for the orchestrator. The API itself runs from cmd/orchestrator-service and the schema from cmd/migrate.`,
}

var (
	configPath string
	userID     uint
	role       string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		if role != auth.RoleAdmin && role != auth.RoleUser {
			return fmt.Errorf("role must be %q or %q", auth.RoleAdmin, auth.RoleUser)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("auth.jwt_secret is not configured")
		}

		token, expiresAt, err := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).
			Sign(auth.Principal{UserID: userID, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func main() {
	tokenCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-orchestrator.yaml", "Path to the configuration file")
	tokenCmd.Flags().UintVar(&userID, "user", 0, "User ID the token is issued for")
	tokenCmd.Flags().StringVar(&role, "role", auth.RoleUser, "Role claim (admin or user)")
	rootCmd.AddCommand(tokenCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
