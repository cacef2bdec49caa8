package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matchdesk/cms/internal/config"
	"github.com/matchdesk/cms/pkg/auth"
)

var (
	tokenUser  string
	tokenName  string
	tokenEmail string
	tokenAdmin bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for local development",
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User id (required)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email address")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant page administration")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	auth.SetSecret(cfg.JWTSecret)

	token, err := auth.GenerateToken(auth.UserSession{
		ID:    tokenUser,
		Name:  tokenName,
		Email: tokenEmail,
		Admin: tokenAdmin,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
