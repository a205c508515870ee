package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fnhub/ingest/cmd/ingest/models"
	"github.com/fnhub/ingest/cmd/ingest/repository"
	"github.com/spf13/cobra"
)

func newRequestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "Inspect queued deploy requests",
	}
	cmd.AddCommand(newRequestsListCmd())
	return cmd
}

func newRequestsListCmd() *cobra.Command {
	var (
		appID  string
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List deploy requests of an application",
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := setupDB(cmd)
			if err != nil {
				return err
			}
			defer shutdown(components)

			repo := repository.NewDeployRequestRepository(components.DB)
			reqs, err := repo.ListByStatus(cmd.Context(), appID, models.DeployStatus(status), limit)
			if err != nil {
				return err
			}

			printRequests(cmd.OutOrStdout(), reqs)
			return nil
		},
	}

	cmd.Flags().StringVar(&appID, "app", "", "application id (required)")
	cmd.Flags().StringVar(&status, "status", string(models.StatusPending), "request status")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	_ = cmd.MarkFlagRequired("app")
	return cmd
}

func printRequests(w io.Writer, reqs []*models.DeployRequest) {
	if len(reqs) == 0 {
		fmt.Fprintln(w, "No deploy requests found.")
		return
	}

	fmt.Fprintf(w, "%-36s  %-8s  %-9s  %-16s  %s\n", "ID", "TYPE", "STATUS", "SOURCE", "CREATED")
	fmt.Fprintln(w, strings.Repeat("─", 100))
	for _, r := range reqs {
		fmt.Fprintf(w, "%-36s  %-8s  %-9s  %-16s  %s\n",
			r.ID, r.Type, r.Status, r.Source, r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}
