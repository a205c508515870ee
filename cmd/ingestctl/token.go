package main

import (
	"fmt"

	"github.com/fnhub/ingest/cmd/ingest/service"
	"github.com/fnhub/ingest/common/config"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint deploy and author tokens",
	}
	cmd.AddCommand(newTokenDeployCmd(), newTokenAuthorCmd())
	return cmd
}

func newTokenDeployCmd() *cobra.Command {
	var (
		appID  string
		source string
		scopes []string
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Mint a deploy token for a remote environment",
		Long: "ingestctl token deploy --app <appid> --source <env> --scope policy --scope function\n\n" +
			"Prints a signed deploy token. Scopes limit which payload kinds the\n" +
			"remote environment may push; kinds outside the scopes are dropped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serviceName)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")

			auth, err := service.NewTokenAuthenticator(cfg.Auth.DeploySecret, cfg.Auth.DeployTokenTTL)
			if err != nil {
				return err
			}
			token, err := auth.Issue(appID, source, scopes, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "application id (required)")
	cmd.Flags().StringVar(&source, "source", "", "name of the pushing environment")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{"policy", "function"}, "payload kinds the token may deploy")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default DEPLOY_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("app")
	return cmd
}

func newTokenAuthorCmd() *cobra.Command {
	var uid string

	cmd := &cobra.Command{
		Use:   "author",
		Short: "Mint a bearer token for a local author",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(serviceName)
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")

			tokens, err := service.NewAuthorTokens(cfg.Auth.AuthorSecret, cfg.Auth.AuthorTokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.Issue(uid, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "author user id (required)")
	cmd.Flags().Duration("ttl", 0, "token lifetime (default AUTHOR_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}
