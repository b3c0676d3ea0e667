package cluster

import (
	"fmt"
	"strings"

	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewListCmd creates the cluster list command.
func NewListCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List kind clusters",
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleListRunE(cmd, manager, deps)
		})

	return cmd
}

// HandleListRunE prints every kind cluster, marking the configured one.
func HandleListRunE(cmd *cobra.Command, cfgManager *configmanager.ConfigManager, deps lifecycle.Deps) error {
	spec := cfgManager.Config.Spec.Cluster

	provisioner, err := lifecycle.NewProvisioner(cmd, deps, spec)
	if err != nil {
		return err
	}

	clusters, err := provisioner.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list clusters: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(clusters) == 0 {
		notify.Infof(out, "no kind clusters found")

		return nil
	}

	var builder strings.Builder

	for _, name := range clusters {
		marker := " "
		if name == spec.Name {
			marker = "*"
		}

		fmt.Fprintf(&builder, "%s %s\n", marker, name)
	}

	_, err = fmt.Fprint(out, builder.String())
	if err != nil {
		return fmt.Errorf("failed to print clusters: %w", err)
	}

	return nil
}
