// Package ingress implements 'coderev ingress'.
package ingress

import (
	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/k8s"
	ingresssvc "github.com/coderev/coderev-infra/pkg/svc/ingress"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// NewIngressCmd creates the ingress parent command.
func NewIngressCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ingress",
		Short:        "Manage the ingress controller of the local cluster",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewInstallCmd(runtimeContainer))

	return cmd
}

// NewInstallCmd creates the ingress install command.
func NewInstallCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the ingress-nginx controller",
		Long: `Download the ingress controller manifest, apply it to the local cluster, and wait
for the controller pods to become Ready.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.ClusterNameField(),
		configmanager.KubeconfigField(),
		configmanager.IngressManifestField(),
		configmanager.IngressTimeoutField(),
	)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleInstallRunE(cmd, manager.Config, deps)
		})

	return cmd
}

// HandleInstallRunE installs the ingress controller into the configured cluster.
func HandleInstallRunE(
	cmd *cobra.Command,
	env *v1alpha1.Environment,
	deps lifecycle.Deps,
	opts ...ingresssvc.Option,
) error {
	out := cmd.OutOrStdout()

	err := lifecycle.EnsureCluster(cmd, deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	clients, err := lifecycle.Connect(deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	notify.Titlef(out, "🌐", "Install ingress...")

	applier := k8s.NewApplier(clients.Dynamic, clients.Mapper)

	err = ingresssvc.NewInstaller(applier, clients.Typed, out, opts...).Install(cmd.Context(), env.Spec.Ingress)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, deps.Timer), "ingress controller ready")

	return nil
}
