package cluster

import (
	"fmt"
	"time"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/k8s/readiness"
	"github.com/coderev/coderev-infra/pkg/svc/preflight"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// DefaultReadyTimeout bounds the wait for the API server and nodes after creation.
const DefaultReadyTimeout = 3 * time.Minute

// CreateDeps are the collaborators of cluster create.
type CreateDeps struct {
	lifecycle.Deps

	Engine       preflight.Pinger
	ReadyTimeout time.Duration
}

// NewCreateCmd creates the cluster create command.
func NewCreateCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the local kind cluster",
		Long: `Create the local kind cluster with ingress-ready port mappings.

Running create against an existing cluster is a no-op.`,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.ClusterFields()...)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			engine, err := di.ResolveDockerEngine(deps.Injector)
			if err != nil {
				return err
			}

			return HandleCreateRunE(cmd, manager.Config, CreateDeps{
				Deps:         deps,
				Engine:       engine,
				ReadyTimeout: DefaultReadyTimeout,
			})
		})

	return cmd
}

// HandleCreateRunE checks the engine, creates the cluster unless it exists, waits for it to
// become ready, and prints the next steps.
func HandleCreateRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps CreateDeps) error {
	out := cmd.OutOrStdout()
	spec := env.Spec.Cluster

	err := preflight.Run(cmd.Context(), out, preflight.Docker(deps.Engine))
	if err != nil {
		return err
	}

	notify.Titlef(out, "🚀", "Create cluster...")

	provisioner, err := lifecycle.NewProvisioner(cmd, deps.Deps, spec)
	if err != nil {
		return err
	}

	exists, err := provisioner.Exists(cmd.Context(), spec.Name)
	if err != nil {
		return fmt.Errorf("failed to check for cluster %s: %w", spec.Name, err)
	}

	if exists {
		notify.Infof(out, "cluster '%s' already exists, nothing to do", spec.Name)

		return nil
	}

	notify.Activityf(out, "creating %s (1 control-plane, %d workers)", spec.Name, spec.Workers)

	err = provisioner.Create(cmd.Context(), spec.Name)
	if err != nil {
		return fmt.Errorf("failed to create cluster: %w", err)
	}

	err = waitForCluster(cmd, spec, deps)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, deps.Timer), "cluster '%s' created", spec.Name)

	notify.Guidancef(out, "Next steps:",
		"coderev secrets generate",
		"coderev images build",
		"coderev ingress install",
		"coderev deploy "+env.Spec.Deploy.Overlay,
	)

	return nil
}

func waitForCluster(cmd *cobra.Command, spec v1alpha1.ClusterSpec, deps CreateDeps) error {
	if deps.KubeClients == nil {
		return nil
	}

	clients, err := lifecycle.Connect(deps.Deps, spec)
	if err != nil {
		return err
	}

	notify.Activityf(cmd.OutOrStdout(), "waiting for API server and nodes")

	err = readiness.WaitForAPIServerReady(cmd.Context(), clients.Typed, deps.ReadyTimeout)
	if err != nil {
		return fmt.Errorf("API server not ready: %w", err)
	}

	err = readiness.WaitForNodesReady(cmd.Context(), clients.Typed, deps.ReadyTimeout)
	if err != nil {
		return fmt.Errorf("nodes not ready: %w", err)
	}

	return nil
}
