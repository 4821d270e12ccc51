package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/pkg/presenter"
)

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resume an interrupted session from its last checkpoint",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code := runResume(cmd.Context(), getCreateConfigFromFlags(cmd), args[0])
		os.Exit(code)
	},
}

func init() {
	addPipelineFlags(resumeCmd)
}

func runResume(ctx context.Context, config *CreateConfig, id string) int {
	deps, err := buildDependencies(ctx, config)
	if err != nil {
		presenter.Error(err, "failed to initialize pipeline")
		return 1
	}
	defer deps.Store.Close()

	return runSession(ctx, deps, id)
}
