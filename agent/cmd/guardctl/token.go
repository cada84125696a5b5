package main

import (
	"fmt"

	"focus-guard/agent/internal/auth"
	"focus-guard/agent/internal/config"

	"github.com/spf13/cobra"
)

var (
	subjectFlag string
	scopesFlag  []string
	ttlFlag     int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the agent's settings and stats routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		ttl := cfg.TokenTTLMin
		if ttlFlag > 0 {
			ttl = ttlFlag
		}
		tok, err := auth.NewSigner(cfg.APISecret, ttl).Sign(subjectFlag, scopesFlag...)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&subjectFlag, "subject", "guardctl", "token subject")
	tokenCmd.Flags().StringSliceVar(&scopesFlag, "scope", []string{auth.ScopeSettings, auth.ScopeStats}, "granted scopes")
	tokenCmd.Flags().IntVar(&ttlFlag, "ttl", 0, "lifetime in minutes (default from config)")
	rootCmd.AddCommand(tokenCmd)
}
