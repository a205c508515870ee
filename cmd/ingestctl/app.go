package main

import (
	"fmt"
	"time"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/cmd/ingest/repository"
	"github.com/spf13/cobra"
)

func newAppCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Manage applications and collaborators",
	}
	cmd.AddCommand(newAppCreateCmd(), newAppGrantCmd())
	return cmd
}

func newAppCreateCmd() *cobra.Command {
	var appID, name, owner string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := setupDB(cmd)
			if err != nil {
				return err
			}
			defer shutdown(components)

			repo := repository.NewApplicationRepository(components.DB)
			app := &models.Application{
				AppID:     appID,
				Name:      name,
				CreatedBy: owner,
				CreatedAt: time.Now().UTC(),
			}
			if err := repo.Create(cmd.Context(), app); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "application %s created (owner %s)\n", appID, owner)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "application id (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&owner, "owner", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newAppGrantCmd() *cobra.Command {
	var (
		appID string
		user  string
		roles []string
	)

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Set the roles of a collaborator",
		Long: "ingestctl app grant --app <appid> --user <uid> --role app.developer\n\n" +
			"Built-in roles: app.admin, app.developer, app.operator.",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := setupDB(cmd)
			if err != nil {
				return err
			}
			defer shutdown(components)

			repo := repository.NewApplicationRepository(components.DB)
			if err := repo.UpsertCollaborator(cmd.Context(), &models.Collaborator{
				AppID:  appID,
				UserID: user,
				Roles:  roles,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %v\n", user, appID, roles)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "application id (required)")
	cmd.Flags().StringVar(&user, "user", "", "collaborator user id (required)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant, repeatable")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
