package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/pkg/install"
	"github.com/skillforge/skillforge/pkg/orchestrator"
	"github.com/skillforge/skillforge/pkg/presenter"
	"github.com/skillforge/skillforge/pkg/research"
	"github.com/skillforge/skillforge/pkg/session"
	"github.com/skillforge/skillforge/pkg/worker"
)

// CreateConfig holds configuration for the create command.
type CreateConfig struct {
	Model         string
	MaxTokens     int
	MaxConcurrent int
	Global        bool
}

// NewCreateConfig returns default create configuration.
func NewCreateConfig() *CreateConfig {
	return &CreateConfig{}
}

func getCreateConfigFromFlags(cmd *cobra.Command) *CreateConfig {
	config := NewCreateConfig()
	if model, err := cmd.Flags().GetString("model"); err == nil {
		config.Model = model
	}
	if maxTokens, err := cmd.Flags().GetInt("max-tokens"); err == nil {
		config.MaxTokens = maxTokens
	}
	if maxConcurrent, err := cmd.Flags().GetInt("max-concurrent"); err == nil {
		config.MaxConcurrent = maxConcurrent
	}
	if global, err := cmd.Flags().GetBool("global"); err == nil {
		config.Global = global
	}
	return config
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "Claude model to use (overrides config)")
	cmd.Flags().Int("max-tokens", 0, "Maximum tokens per worker response (overrides config)")
	cmd.Flags().Int("max-concurrent", 0, "Maximum concurrent research queries")
	cmd.Flags().Bool("global", false, "Install into ~/.skillforge/skills instead of ./.skillforge/skills")
}

var createCmd = &cobra.Command{
	Use:   "create [request]",
	Short: "Create a skill from a natural-language request",
	Long: `Create runs the full pipeline for a request: research the topic, score
sufficiency, design and validate a blueprint, generate the skill content,
apply the quality gate, and install the packaged skill.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code := runCreate(cmd.Context(), getCreateConfigFromFlags(cmd), strings.Join(args, " "))
		os.Exit(code)
	},
}

func runCreate(ctx context.Context, config *CreateConfig, request string) int {
	deps, err := buildDependencies(ctx, config)
	if err != nil {
		presenter.Error(err, "failed to initialize pipeline")
		return 1
	}
	defer deps.Store.Close()

	// Only one session may run at a time. If a non-terminal session
	// exists, offer to resume it instead of starting over.
	if active := findActiveSession(ctx, deps.Store); active != nil {
		choice := presenter.Prompt(
			fmt.Sprintf("session %s (%s) is still in progress; resume it?", active.ID, active.Phase),
			"Y", "n")
		if !strings.EqualFold(choice, "n") && !strings.EqualFold(choice, "no") {
			return runSession(ctx, deps, active.ID)
		}
	}

	orch, err := orchestrator.New(deps)
	if err != nil {
		presenter.Error(err, "failed to initialize pipeline")
		return 1
	}

	// Checkpoint the new session first so the drive happens under its
	// session lock, exactly like the resume path.
	record, err := orch.Begin(ctx, request)
	if err != nil {
		return reportOutcome(record, err)
	}
	return runSession(ctx, deps, record.ID)
}

func init() {
	addPipelineFlags(createCmd)
}

// buildDependencies wires the pipeline collaborators: session store,
// research runner, Anthropic worker, architect, terminal prompts, and
// the installer.
func buildDependencies(ctx context.Context, config *CreateConfig) (orchestrator.Dependencies, error) {
	storeConfig, err := storeConfigFromViper()
	if err != nil {
		return orchestrator.Dependencies{}, err
	}
	store, err := session.NewStore(ctx, storeConfig)
	if err != nil {
		return orchestrator.Dependencies{}, errors.Wrap(err, "failed to open session store")
	}

	workerOpts := []worker.AnthropicOption{}
	if config.Model != "" {
		workerOpts = append(workerOpts, worker.WithModel(config.Model))
	}
	if config.MaxTokens > 0 {
		workerOpts = append(workerOpts, worker.WithMaxTokens(config.MaxTokens))
	}
	w := worker.NewAnthropicWorker(workerOpts...)

	provider, err := research.NewWorkerProvider(w)
	if err != nil {
		return orchestrator.Dependencies{}, err
	}
	runnerOpts := []research.Option{}
	if config.MaxConcurrent > 0 {
		runnerOpts = append(runnerOpts, research.WithMaxConcurrent(config.MaxConcurrent))
	}
	runner, err := research.NewRunner(provider, runnerOpts...)
	if err != nil {
		return orchestrator.Dependencies{}, err
	}

	architect, err := orchestrator.NewWorkerArchitect(w)
	if err != nil {
		return orchestrator.Dependencies{}, err
	}

	var installer install.Installer
	if config.Global {
		installer, err = install.NewGlobalInstaller()
	} else {
		installer, err = install.NewRepoInstaller()
	}
	if err != nil {
		return orchestrator.Dependencies{}, err
	}

	return orchestrator.Dependencies{
		Store:     store,
		Runner:    runner,
		Worker:    w,
		Architect: architect,
		Asker:     terminalAsker{},
		Operator:  terminalOperator{},
		Installer: installer,
	}, nil
}

// findActiveSession returns the most recently updated non-terminal
// session, or nil when every session has finished.
func findActiveSession(ctx context.Context, store session.Store) *session.Summary {
	summaries, err := store.List(ctx)
	if err != nil {
		return nil
	}
	for i := range summaries {
		if !summaries[i].Phase.Terminal() {
			return &summaries[i]
		}
	}
	return nil
}

// runSession locks a session and drives it to completion.
func runSession(ctx context.Context, deps orchestrator.Dependencies, id string) int {
	storeConfig, err := storeConfigFromViper()
	if err != nil {
		presenter.Error(err, "failed to resolve session directory")
		return 1
	}
	lock, err := session.AcquireLock(storeConfig.BasePath, id)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			presenter.Error(err, fmt.Sprintf("session %s is already running in another process", id))
		} else {
			presenter.Error(err, "failed to lock session")
		}
		return 1
	}
	defer lock.Release()

	orch, err := orchestrator.New(deps)
	if err != nil {
		presenter.Error(err, "failed to initialize pipeline")
		return 1
	}
	record, err := orch.Resume(ctx, id)
	return reportOutcome(record, err)
}

// reportOutcome prints the final state of a pipeline run and maps it
// to an exit code: 0 on success, 2 on success with warnings, 1 on any
// error.
func reportOutcome(record *session.Record, err error) int {
	if err != nil {
		if errors.Is(err, orchestrator.ErrAborted) {
			presenter.Warning(err.Error())
		} else {
			presenter.Error(err, "skill creation failed")
		}
		if record != nil && !record.Phase.Terminal() {
			presenter.Info(fmt.Sprintf("resume with: skillforge resume %s", record.ID))
		}
		return 1
	}

	if record.Installation != nil {
		presenter.Success(fmt.Sprintf("skill installed to %s (%d files)",
			record.Installation.TargetDir, len(record.Installation.Installed)))
	} else {
		presenter.Success(fmt.Sprintf("session %s complete", record.ID))
	}

	if record.Architecture != nil && len(record.Architecture.Warnings) > 0 {
		for _, warning := range record.Architecture.Warnings {
			presenter.Warning(warning)
		}
		return 2
	}
	return 0
}

// terminalAsker collects clarification answers interactively.
type terminalAsker struct{}

func (terminalAsker) Ask(ctx context.Context, questions []string) ([]string, error) {
	answers := make([]string, 0, len(questions))
	for _, question := range questions {
		answer := presenter.Prompt(question)
		if answer == "" {
			return nil, errors.Errorf("no answer given for %q", question)
		}
		answers = append(answers, answer)
	}
	return answers, nil
}

// terminalOperator asks the user yes/no decisions.
type terminalOperator struct{}

func (terminalOperator) Confirm(ctx context.Context, prompt string) (bool, error) {
	response := presenter.Prompt(prompt, "y", "N")
	switch strings.ToLower(response) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
