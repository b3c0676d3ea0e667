// Package deploy implements 'coderev deploy'.
package deploy

import (
	"errors"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/client/kubeconform"
	"github.com/coderev/coderev-infra/pkg/client/kustomize"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/k8s"
	deploysvc "github.com/coderev/coderev-infra/pkg/svc/deploy"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// Deps are the collaborators of deploy.
type Deps struct {
	lifecycle.Deps

	Renderer  deploysvc.Renderer
	Validator deploysvc.Validator
}

// NewDeployCmd creates the deploy command.
func NewDeployCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy [overlay]",
		Short: "Deploy a kustomize overlay to the local cluster",
		Long: `Render the overlay (default "local") with kustomize, apply it, and wait for
postgres, redis, coderev-api, and coderev-worker to roll out.`,
		Example:      "  coderev deploy\n  coderev deploy local --validate",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.ClusterNameField(),
		configmanager.KubeconfigField(),
		configmanager.NamespaceField(),
		configmanager.OverlaysDirField(),
		configmanager.ValidateField(),
	)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleDeployRunE(cmd, manager.Config, Deps{
				Deps:      deps,
				Renderer:  kustomize.NewClient(),
				Validator: kubeconform.NewClient(),
			}, cmd.Flags().Args())
		})

	return cmd
}

// HandleDeployRunE deploys the overlay named by args[0], or the configured one.
func HandleDeployRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps, args []string) error {
	out := cmd.OutOrStdout()
	spec := env.Spec.Deploy

	if len(args) > 0 {
		spec.Overlay = args[0]
	}

	err := lifecycle.EnsureCluster(cmd, deps.Deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	err = deploysvc.CheckOverlay(spec.OverlayDir(spec.Overlay))
	if err != nil {
		if errors.Is(err, deploysvc.ErrGeneratorInputMissing) {
			notify.Guidancef(out, "Generate the secrets file first:", "coderev secrets generate")
		}

		return err
	}

	clients, err := lifecycle.Connect(deps.Deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	notify.Titlef(out, "🚢", "Deploy %s...", spec.Overlay)

	deployer := deploysvc.NewDeployer(
		deps.Renderer,
		deps.Validator,
		k8s.NewApplier(clients.Dynamic, clients.Mapper),
		clients.Typed,
		out,
		helpers.MaybeTimer(cmd, deps.Timer),
	)

	err = deployer.Deploy(cmd.Context(), spec, env.Spec.Namespace)
	if err != nil {
		return err
	}

	notify.Guidancef(out, "CodeRev is available at:", deploysvc.AccessURLs(spec.BaseURL)...)

	return nil
}
