package di

import (
	"fmt"

	"github.com/coderev/coderev-infra/pkg/client/docker"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

// ResolveTimer retrieves the timer dependency from the injector with consistent error handling.
func ResolveTimer(injector Injector) (timer.Timer, error) {
	tmr, err := do.Invoke[timer.Timer](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve timer dependency: %w", err)
	}

	return tmr, nil
}

// ResolveClusterProvisionerFactory retrieves the cluster provisioner factory.
func ResolveClusterProvisionerFactory(injector Injector) (clusterprovisioner.Factory, error) {
	factory, err := do.Invoke[clusterprovisioner.Factory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve provisioner factory dependency: %w", err)
	}

	return factory, nil
}

// ResolveDockerEngine connects to the container engine.
func ResolveDockerEngine(injector Injector) (docker.Engine, error) {
	engine, err := do.Invoke[docker.Engine](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve docker engine dependency: %w", err)
	}

	return engine, nil
}

// ResolveKubeClientsFactory retrieves the Kubernetes client factory.
func ResolveKubeClientsFactory(injector Injector) (KubeClientsFactory, error) {
	factory, err := do.Invoke[KubeClientsFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve kubernetes client dependency: %w", err)
	}

	return factory, nil
}

// ResolveAWSClientsFactory retrieves the AWS client factory.
func ResolveAWSClientsFactory(injector Injector) (AWSClientsFactory, error) {
	factory, err := do.Invoke[AWSClientsFactory](injector)
	if err != nil {
		return nil, fmt.Errorf("resolve aws client dependency: %w", err)
	}

	return factory, nil
}

// WithTimer decorates a handler to automatically resolve the timer dependency.
func WithTimer(
	handler func(cmd *cobra.Command, injector Injector, tmr timer.Timer) error,
) func(cmd *cobra.Command, injector Injector) error {
	return func(cmd *cobra.Command, injector Injector) error {
		tmr, err := ResolveTimer(injector)
		if err != nil {
			return err
		}

		return handler(cmd, injector, tmr)
	}
}
