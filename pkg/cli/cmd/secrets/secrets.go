// Package secrets implements 'coderev secrets'.
package secrets

import (
	"errors"
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	secretssvc "github.com/coderev/coderev-infra/pkg/svc/secrets"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
)

// NewSecretsCmd creates the secrets parent command.
func NewSecretsCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "secrets",
		Short:        "Manage the cluster secrets file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewGenerateCmd(runtimeContainer))

	return cmd
}

// NewGenerateCmd creates the secrets generate command.
func NewGenerateCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive the cluster secrets file from .env",
		Long: `Read the local environment file and write the secrets env file the local overlay
consumes. The output is written with mode 0600 and added to .gitignore.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.EnvFileField(),
		configmanager.SecretsFileField(),
	)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleGenerateRunE(cmd, manager.Config, deps.Timer)
		})

	return cmd
}

// HandleGenerateRunE writes the secrets file described by env.
func HandleGenerateRunE(cmd *cobra.Command, env *v1alpha1.Environment, tmr timer.Timer) error {
	out := cmd.OutOrStdout()
	spec := env.Spec.Secrets

	if tmr != nil {
		tmr.NewStage()
	}

	notify.Titlef(out, "🔑", "Generate secrets...")
	notify.Activityf(out, "reading %s", spec.EnvFile)

	result, err := secretssvc.Generate(spec, out)
	if err != nil {
		if errors.Is(err, secretssvc.ErrEnvFileNotFound) {
			notify.Guidancef(out, "Create the environment file first:",
				"cp .env.example "+spec.EnvFile,
				"fill in GITHUB_TOKEN and any LLM provider keys",
			)
		}

		return fmt.Errorf("failed to generate secrets: %w", err)
	}

	notify.Generatef(out, "%s (%d keys)", result.Path, len(result.Keys))

	if result.GitignoreUpdated {
		notify.Activityf(out, "added %s to %s", result.Path, spec.GitignoreFile)
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, tmr), "secrets generated")

	return nil
}
