package cluster

import (
	"context"

	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
	"github.com/spf13/cobra"
)

// DeleteConfig is the lifecycle configuration of cluster delete.
func DeleteConfig() lifecycle.Config {
	return lifecycle.Config{
		TitleEmoji:         "🗑️",
		TitleContent:       "Delete cluster...",
		ActivityContent:    "deleting",
		SuccessContent:     "deleted",
		ErrorMessagePrefix: "failed to delete cluster",
		Action: func(ctx context.Context, provisioner clusterprovisioner.ClusterProvisioner, name string) error {
			return provisioner.Delete(ctx, name)
		},
	}
}

// NewDeleteCmd creates the cluster delete command.
func NewDeleteCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "delete",
		Short:        "Delete the local kind cluster",
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.ClusterNameField())
	cmd.RunE = lifecycle.NewStandardRunE(runtimeContainer, cfgManager, DeleteConfig())

	return cmd
}
