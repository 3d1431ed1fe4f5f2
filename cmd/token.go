package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/course-payments/internal/auth"
)

var (
	tokenSubject int64
	tokenRole    string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user id and role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		tokens, err := auth.NewTokenAuthenticator(cfg.Security.GetTokenSecret(), cfg.Security.AccessTokenDuration)
		if err != nil {
			return err
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = tokens.TTL()
		}
		token, expiresAt, err := tokens.IssueWithTTL(tokenSubject, tokenRole, ttl)
		if err != nil {
			return err
		}

		fmt.Println(token)
		fmt.Println("expires at:", expiresAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenSubject, "user", 0, "subject user id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleAdmin, "role claim: admin or student")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "lifetime, defaults to security.access_token_duration")
	_ = tokenCmd.MarkFlagRequired("user")
}
