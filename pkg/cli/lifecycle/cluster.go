package lifecycle

import (
	"errors"
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/spf13/cobra"
)

var (
	// ErrClusterMissing is returned by commands that need the local cluster when it does not exist.
	ErrClusterMissing = errors.New("cluster does not exist")
	// ErrMissingKubeClientsDependency indicates that no Kubernetes client factory was resolved.
	ErrMissingKubeClientsDependency = errors.New("missing kubernetes clients dependency")
)

// EnsureCluster fails with ErrClusterMissing, after pointing the operator at
// 'coderev cluster create', when the configured cluster does not exist.
func EnsureCluster(cmd *cobra.Command, deps Deps, spec v1alpha1.ClusterSpec) error {
	provisioner, err := NewProvisioner(cmd, deps, spec)
	if err != nil {
		return err
	}

	exists, err := provisioner.Exists(cmd.Context(), spec.Name)
	if err != nil {
		return fmt.Errorf("failed to check for cluster %s: %w", spec.Name, err)
	}

	if !exists {
		notify.Guidancef(cmd.OutOrStdout(), "Create the cluster first:", "coderev cluster create")

		return fmt.Errorf("%w: %s", ErrClusterMissing, spec.Name)
	}

	return nil
}

// Connect returns the clients of the configured cluster.
func Connect(deps Deps, spec v1alpha1.ClusterSpec) (*k8s.Clients, error) {
	if deps.KubeClients == nil {
		return nil, ErrMissingKubeClientsDependency
	}

	kubeconfig, context, err := helpers.KubeTarget(spec)
	if err != nil {
		return nil, err
	}

	clients, err := deps.KubeClients(kubeconfig, context)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster %s: %w", spec.Name, err)
	}

	return clients, nil
}
