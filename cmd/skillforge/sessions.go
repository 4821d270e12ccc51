package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/pkg/presenter"
	"github.com/skillforge/skillforge/pkg/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage saved skill-creation sessions",
}

// SessionsListConfig holds configuration for the sessions list command.
type SessionsListConfig struct {
	Phase     string
	Search    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// NewSessionsListConfig returns default list configuration.
func NewSessionsListConfig() *SessionsListConfig {
	return &SessionsListConfig{
		Limit:     50,
		SortBy:    "updated",
		SortOrder: "desc",
	}
}

func getSessionsListConfigFromFlags(cmd *cobra.Command) *SessionsListConfig {
	config := NewSessionsListConfig()
	if phase, err := cmd.Flags().GetString("phase"); err == nil {
		config.Phase = phase
	}
	if search, err := cmd.Flags().GetString("search"); err == nil {
		config.Search = search
	}
	if limit, err := cmd.Flags().GetInt("limit"); err == nil && limit > 0 {
		config.Limit = limit
	}
	if offset, err := cmd.Flags().GetInt("offset"); err == nil && offset >= 0 {
		config.Offset = offset
	}
	if sortBy, err := cmd.Flags().GetString("sort-by"); err == nil && sortBy != "" {
		config.SortBy = sortBy
	}
	if sortOrder, err := cmd.Flags().GetString("sort-order"); err == nil && sortOrder != "" {
		config.SortOrder = sortOrder
	}
	return config
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getSessionsListConfigFromFlags(cmd)

		store, err := openStore(ctx)
		if err != nil {
			presenter.Error(err, "failed to open session store")
			os.Exit(1)
		}
		defer store.Close()

		options := session.QueryOptions{
			Phase:      session.Phase(config.Phase),
			SearchTerm: config.Search,
			Limit:      config.Limit,
			Offset:     config.Offset,
			SortBy:     config.SortBy,
			SortOrder:  config.SortOrder,
		}
		summaries, err := store.Query(ctx, options)
		if err != nil {
			presenter.Error(err, "failed to list sessions")
			os.Exit(1)
		}
		if len(summaries) == 0 {
			presenter.Info("no sessions found")
			return
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Phase", "Request", "Updated"})
		for _, summary := range summaries {
			t.AppendRow(table.Row{
				summary.ID,
				summary.Phase,
				summary.Request,
				summary.UpdatedAt.Local().Format(time.RFC3339),
			})
		}
		t.Render()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session record as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			presenter.Error(err, "failed to open session store")
			os.Exit(1)
		}
		defer store.Close()

		record, err := store.Load(ctx, args[0])
		if err != nil {
			presenter.Error(err, "failed to load session")
			os.Exit(1)
		}
		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			presenter.Error(err, "failed to format session")
			os.Exit(1)
		}
		fmt.Println(string(out))
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		noConfirm, _ := cmd.Flags().GetBool("no-confirm")

		store, err := openStore(ctx)
		if err != nil {
			presenter.Error(err, "failed to open session store")
			os.Exit(1)
		}
		defer store.Close()

		if !noConfirm {
			response := presenter.Prompt(fmt.Sprintf("delete session %s?", args[0]), "y", "N")
			if !strings.EqualFold(response, "y") && !strings.EqualFold(response, "yes") {
				presenter.Info("deletion cancelled")
				return
			}
		}
		if err := store.Delete(ctx, args[0]); err != nil {
			presenter.Error(err, "failed to delete session")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("deleted session %s", args[0]))
	},
}

func openStore(ctx context.Context) (session.Store, error) {
	config, err := storeConfigFromViper()
	if err != nil {
		return nil, err
	}
	store, err := session.NewStore(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session store")
	}
	return store, nil
}

func init() {
	sessionsListCmd.Flags().String("phase", "", "Filter by phase")
	sessionsListCmd.Flags().String("search", "", "Filter by request substring")
	sessionsListCmd.Flags().Int("limit", 50, "Maximum number of sessions to show")
	sessionsListCmd.Flags().Int("offset", 0, "Number of sessions to skip")
	sessionsListCmd.Flags().String("sort-by", "updated", "Sort field (updated, created)")
	sessionsListCmd.Flags().String("sort-order", "desc", "Sort order (asc, desc)")
	sessionsDeleteCmd.Flags().Bool("no-confirm", false, "Skip the confirmation prompt")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
