package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	runtime "github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
)

// ErrMissingClusterProvisionerDependency indicates that a lifecycle command resolved a nil provisioner.
var ErrMissingClusterProvisionerDependency = errors.New("missing cluster provisioner dependency")

// ErrClusterConfigRequired indicates that a nil configuration was provided.
var ErrClusterConfigRequired = errors.New("cluster configuration is required")

// Action is a lifecycle operation executed against a cluster provisioner.
type Action func(
	ctx context.Context,
	provisioner clusterprovisioner.ClusterProvisioner,
	clusterName string,
) error

// Config describes the messaging and action behavior for a lifecycle command.
type Config struct {
	TitleEmoji         string
	TitleContent       string
	ActivityContent    string
	SuccessContent     string
	ErrorMessagePrefix string
	Action             Action
}

// Deps groups the injectable collaborators required by lifecycle commands.
type Deps struct {
	Timer       timer.Timer
	Factory     clusterprovisioner.Factory
	KubeClients runtime.KubeClientsFactory
	Injector    runtime.Injector
}

// NewStandardRunE creates a RunE that loads the configuration and runs config.Action.
func NewStandardRunE(
	runtimeContainer *runtime.Runtime,
	cfgManager *configmanager.ConfigManager,
	config Config,
) func(*cobra.Command, []string) error {
	return WrapHandler(
		runtimeContainer,
		cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps Deps) error {
			return HandleRunE(cmd, manager, deps, config)
		},
	)
}

// WrapHandler resolves lifecycle dependencies, starts the timer, loads the configuration,
// and invokes handler.
func WrapHandler(
	runtimeContainer *runtime.Runtime,
	cfgManager *configmanager.ConfigManager,
	handler func(*cobra.Command, *configmanager.ConfigManager, Deps) error,
) func(*cobra.Command, []string) error {
	return runtime.RunEWithRuntime(
		runtimeContainer,
		runtime.WithTimer(
			func(cmd *cobra.Command, injector runtime.Injector, tmr timer.Timer) error {
				tmr.Start()

				_, err := cfgManager.Load(configmanager.LoadOptions{Timer: helpers.MaybeTimer(cmd, tmr)})
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}

				factory, err := runtime.ResolveClusterProvisionerFactory(injector)
				if err != nil {
					return err
				}

				kubeClients, err := runtime.ResolveKubeClientsFactory(injector)
				if err != nil {
					return err
				}

				return handler(cmd, cfgManager, Deps{
					Timer:       tmr,
					Factory:     factory,
					KubeClients: kubeClients,
					Injector:    injector,
				})
			},
		),
	)
}

// HandleRunE runs config.Action against the already loaded configuration.
func HandleRunE(
	cmd *cobra.Command,
	cfgManager *configmanager.ConfigManager,
	deps Deps,
	config Config,
) error {
	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	return RunWithConfig(cmd, deps, config, cfgManager.Config)
}

// RunWithConfig creates the provisioner for env and executes config.Action with messaging.
func RunWithConfig(
	cmd *cobra.Command,
	deps Deps,
	config Config,
	env *v1alpha1.Environment,
) error {
	if env == nil {
		return ErrClusterConfigRequired
	}

	notify.Titlef(cmd.OutOrStdout(), config.TitleEmoji, "%s", config.TitleContent)

	provisioner, err := NewProvisioner(cmd, deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	clusterName := env.Spec.Cluster.Name
	notify.Activityf(cmd.OutOrStdout(), "%s %s", config.ActivityContent, clusterName)

	err = config.Action(cmd.Context(), provisioner, clusterName)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrorMessagePrefix, err)
	}

	notify.SuccessWithTimerf(cmd.OutOrStdout(), helpers.MaybeTimer(cmd, deps.Timer),
		"%s %s", config.SuccessContent, clusterName)

	return nil
}

// NewProvisioner builds the provisioner for spec, streaming tool output to cmd's streams.
func NewProvisioner(
	cmd *cobra.Command,
	deps Deps,
	spec v1alpha1.ClusterSpec,
) (clusterprovisioner.ClusterProvisioner, error) {
	if deps.Factory == nil {
		return nil, ErrMissingClusterProvisionerDependency
	}

	provisioner, err := deps.Factory.Create(spec, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("failed to create provisioner: %w", err)
	}

	if provisioner == nil {
		return nil, ErrMissingClusterProvisionerDependency
	}

	return provisioner, nil
}
