package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillforge/skillforge/pkg/blueprint"
	"github.com/skillforge/skillforge/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate [blueprint.yaml]",
	Short: "Validate a blueprint file without running the pipeline",
	Long: `Validate loads a blueprint YAML file and checks it against all
structural and size constraints. Exits 0 when the blueprint is clean,
2 when it carries warnings only, and 1 when it has errors.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bp, err := blueprint.Load(args[0])
		if err != nil {
			presenter.Error(err, "failed to load blueprint")
			os.Exit(1)
		}

		errs, warns := blueprint.Validate(bp)
		for _, issue := range errs {
			presenter.Error(errors.New(issue.Message), issue.Rule)
		}
		for _, issue := range warns {
			presenter.Warning(issue.String())
		}

		switch {
		case len(errs) > 0:
			presenter.Info(fmt.Sprintf("%d error(s), %d warning(s)", len(errs), len(warns)))
			os.Exit(1)
		case len(warns) > 0:
			presenter.Info(fmt.Sprintf("blueprint is valid with %d warning(s)", len(warns)))
			os.Exit(2)
		default:
			presenter.Success("blueprint is valid")
		}
	},
}
