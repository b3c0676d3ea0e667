// Package clusterprovisioner defines the lifecycle contract for the local cluster.
package clusterprovisioner

import (
	"context"
	"errors"
	"io"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
)

// ErrClusterNotFound is returned when an operation targets a cluster that does not exist.
var ErrClusterNotFound = errors.New("cluster not found")

// ClusterProvisioner defines methods for managing local Kubernetes clusters.
type ClusterProvisioner interface {
	// Create creates a cluster. If name is non-empty, target that name; otherwise use config defaults.
	Create(ctx context.Context, name string) error

	// Delete deletes a cluster by name or config default when name is empty.
	// Returns ErrClusterNotFound when it does not exist.
	Delete(ctx context.Context, name string) error

	// List lists all clusters.
	List(ctx context.Context) ([]string, error)

	// Exists checks if a cluster exists by name or config default when name is empty.
	Exists(ctx context.Context, name string) (bool, error)
}

// Factory builds the provisioner for a cluster spec, streaming tool output to out and errOut.
type Factory interface {
	Create(spec v1alpha1.ClusterSpec, out, errOut io.Writer) (ClusterProvisioner, error)
}
