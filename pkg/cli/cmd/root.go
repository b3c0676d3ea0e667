package cmd

import (
	"fmt"

	"github.com/coderev/coderev-infra/pkg/cli/cmd/cluster"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/deploy"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/images"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/infra"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/ingress"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/secrets"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/status"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/teardown"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/ui/errorhandler"
	runtime "github.com/coderev/coderev-infra/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	return NewRootCmdWithRuntime(runtime.NewRuntime(), version, commit, date)
}

// NewRootCmdWithRuntime builds the command tree on top of runtimeContainer.
func NewRootCmdWithRuntime(runtimeContainer *runtime.Runtime, version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coderev",
		Short: "Bootstrap, deploy, and provision CodeRev environments",
		Long: `coderev stands up the local kind environment CodeRev runs in (cluster, secrets,
images, ingress, deploy) and renders and applies the cloud network and managed cluster.`,
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.PersistentFlags().Bool(
		helpers.TimingFlagName,
		false,
		"Show per-activity timing output",
	)
	cmd.PersistentFlags().String(
		helpers.ConfigFlagName,
		"",
		"Path to the environment config (default ./coderev.yaml)",
	)

	cmd.AddCommand(cluster.NewClusterCmd(runtimeContainer))
	cmd.AddCommand(secrets.NewSecretsCmd(runtimeContainer))
	cmd.AddCommand(images.NewImagesCmd(runtimeContainer))
	cmd.AddCommand(ingress.NewIngressCmd(runtimeContainer))
	cmd.AddCommand(deploy.NewDeployCmd(runtimeContainer))
	cmd.AddCommand(teardown.NewTeardownCmd(runtimeContainer))
	cmd.AddCommand(status.NewStatusCmd(runtimeContainer))
	cmd.AddCommand(infra.NewInfraCmd(runtimeContainer))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// Help only fails when the output writer does.
	_ = cmd.Help()

	return nil
}
