package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage API bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for the audit routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Auth.Secret == "" {
			return errors.New("auth secret not configured (set VERITRUSTX_AUTH_SECRET)")
		}
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}

		iss, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.Issuer)
		if err != nil {
			return err
		}
		token, err := iss.Issue(subject, role, ttl)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenIssueCmd.Flags().String("subject", "", "Operator the token is issued to")
	tokenIssueCmd.Flags().String("role", "auditor", "Role claim")
	tokenIssueCmd.Flags().Duration("ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
	_ = tokenIssueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(tokenIssueCmd)
}
