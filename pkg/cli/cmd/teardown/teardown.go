// Package teardown implements 'coderev teardown'.
package teardown

import (
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewTeardownCmd creates the teardown command.
func NewTeardownCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Remove the CodeRev namespace, and optionally the cluster",
		Long: `Delete the CodeRev namespace and wait until it is gone. With --delete-cluster
(or DELETE_CLUSTER=true) the local kind cluster is deleted as well.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.ClusterNameField(),
		configmanager.KubeconfigField(),
		configmanager.NamespaceField(),
		configmanager.DeleteClusterField(),
	)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleTeardownRunE(cmd, manager.Config, deps)
		})

	return cmd
}

// HandleTeardownRunE deletes the namespace and, when configured, the cluster. A missing
// cluster or namespace is reported and not an error.
func HandleTeardownRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps lifecycle.Deps) error {
	out := cmd.OutOrStdout()
	cluster := env.Spec.Cluster

	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	notify.Titlef(out, "🧹", "Teardown...")

	provisioner, err := lifecycle.NewProvisioner(cmd, deps, cluster)
	if err != nil {
		return err
	}

	exists, err := provisioner.Exists(cmd.Context(), cluster.Name)
	if err != nil {
		return fmt.Errorf("failed to check for cluster %s: %w", cluster.Name, err)
	}

	if !exists {
		notify.Infof(out, "cluster '%s' not found, nothing to tear down", cluster.Name)

		return nil
	}

	clients, err := lifecycle.Connect(deps, cluster)
	if err != nil {
		return err
	}

	notify.Activityf(out, "deleting namespace %s", env.Spec.Namespace)

	deleted, err := k8s.DeleteNamespace(cmd.Context(), clients.Typed, env.Spec.Namespace, env.Spec.Teardown.Timeout.Duration)
	if err != nil {
		return err
	}

	if deleted {
		notify.Successf(out, "namespace %s deleted", env.Spec.Namespace)
	} else {
		notify.Infof(out, "namespace %s not found", env.Spec.Namespace)
	}

	if env.Spec.Teardown.DeleteCluster {
		notify.Activityf(out, "deleting cluster %s", cluster.Name)

		err = provisioner.Delete(cmd.Context(), cluster.Name)
		if err != nil {
			return fmt.Errorf("failed to delete cluster: %w", err)
		}

		notify.Successf(out, "cluster %s deleted", cluster.Name)
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, deps.Timer), "teardown complete")

	return nil
}
