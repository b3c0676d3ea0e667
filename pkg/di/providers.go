package di

import (
	"context"

	"github.com/coderev/coderev-infra/pkg/client/aws"
	"github.com/coderev/coderev-infra/pkg/client/docker"
	"github.com/coderev/coderev-infra/pkg/k8s"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
	kindprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster/kind"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/samber/do/v2"
)

// KubeClientsFactory connects to a cluster through a kubeconfig and context.
type KubeClientsFactory func(kubeconfig, context string) (*k8s.Clients, error)

// AWSClientsFactory builds the AWS service clients of one region.
type AWSClientsFactory func(ctx context.Context, region string) (*aws.Clients, error)

// NewRuntime constructs the shared runtime container used by the root command.
func NewRuntime() *Runtime {
	return New(
		provideTimer,
		provideClusterProvisionerFactory,
		provideDockerEngine,
		provideKubeClientsFactory,
		provideAWSClientsFactory,
	)
}

func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

func provideClusterProvisionerFactory(i Injector) error {
	do.Provide(i, func(Injector) (clusterprovisioner.Factory, error) {
		return kindprovisioner.Factory{}, nil
	})

	return nil
}

// provideDockerEngine registers a lazily connected engine; nothing dials the daemon until a
// command resolves it.
func provideDockerEngine(i Injector) error {
	do.Provide(i, func(Injector) (docker.Engine, error) {
		return docker.NewClientFromEnv()
	})

	return nil
}

func provideKubeClientsFactory(i Injector) error {
	do.ProvideValue(i, KubeClientsFactory(k8s.NewClients))

	return nil
}

func provideAWSClientsFactory(i Injector) error {
	do.ProvideValue(i, AWSClientsFactory(aws.NewClients))

	return nil
}
