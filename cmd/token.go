package cmd

import (
	"fmt"

	"campus-vibe-backend/internal/services"

	"github.com/spf13/cobra"
)

var tokenMemberID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a member (local testing)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		token, err := services.NewAuthService(cfg.JWT.Secret).GenerateJWT(tokenMemberID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
