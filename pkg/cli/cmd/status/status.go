// Package status implements 'coderev status'.
package status

import (
	"errors"
	"net/http"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	statussvc "github.com/coderev/coderev-infra/pkg/svc/status"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned when any reported component is not healthy.
var ErrUnhealthy = errors.New("deployment is not healthy")

// Deps are the collaborators of status.
type Deps struct {
	lifecycle.Deps

	HTTPClient *http.Client
}

// NewStatusCmd creates the status command.
func NewStatusCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report cluster, deployment, and API health",
		Long: `Report whether the local cluster exists, the ready replicas of every CodeRev
deployment, and with --probe the API's /health and /ready endpoints.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.ClusterNameField(),
		configmanager.KubeconfigField(),
		configmanager.NamespaceField(),
		configmanager.ProbeField(),
	)

	cmd.RunE = lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			return HandleStatusRunE(cmd, manager.Config, Deps{Deps: deps, HTTPClient: http.DefaultClient})
		})

	return cmd
}

// HandleStatusRunE prints the report and returns ErrUnhealthy when anything is down.
func HandleStatusRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
	out := cmd.OutOrStdout()
	cluster := env.Spec.Cluster

	notify.Titlef(out, "🩺", "Status...")

	provisioner, err := lifecycle.NewProvisioner(cmd, deps.Deps, cluster)
	if err != nil {
		return err
	}

	exists, err := provisioner.Exists(cmd.Context(), cluster.Name)
	if err != nil {
		return err
	}

	if !exists {
		notify.Errorf(out, "cluster %s not found", cluster.Name)

		return ErrUnhealthy
	}

	notify.Successf(out, "cluster %s exists", cluster.Name)

	clients, err := lifecycle.Connect(deps.Deps, cluster)
	if err != nil {
		return err
	}

	deployments, err := statussvc.Deployments(cmd.Context(), clients.Typed, env.Spec.Namespace, env.Spec.Deploy.Rollouts)
	if err != nil {
		return err
	}

	var probes []statussvc.ProbeResult
	if env.Spec.Status.Probe {
		probes = statussvc.Probe(cmd.Context(), deps.HTTPClient, env.Spec.Deploy.BaseURL, env.Spec.Status.ProbeTimeout.Duration)
	}

	if !statussvc.Print(out, deployments, probes) {
		return ErrUnhealthy
	}

	return nil
}
