// Package testutil holds fakes shared by the command tests.
package testutil

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
)

// FakeProvisioner keeps an in-memory set of clusters.
type FakeProvisioner struct {
	mu sync.Mutex

	Clusters  []string
	CreateErr error
	DeleteErr error
	ListErr   error
	Created   []string
	Deleted   []string
}

var _ clusterprovisioner.ClusterProvisioner = (*FakeProvisioner)(nil)

// Create records name and adds it to Clusters.
func (f *FakeProvisioner) Create(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.CreateErr != nil {
		return f.CreateErr
	}

	f.Created = append(f.Created, name)
	f.Clusters = append(f.Clusters, name)

	return nil
}

// Delete removes name, returning ErrClusterNotFound when absent.
func (f *FakeProvisioner) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	idx := slices.Index(f.Clusters, name)
	if idx < 0 {
		return clusterprovisioner.ErrClusterNotFound
	}

	f.Deleted = append(f.Deleted, name)
	f.Clusters = slices.Delete(f.Clusters, idx, idx+1)

	return nil
}

// List returns Clusters.
func (f *FakeProvisioner) List(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.Clusters), f.ListErr
}

// Exists reports whether name is in Clusters.
func (f *FakeProvisioner) Exists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ListErr != nil {
		return false, f.ListErr
	}

	return slices.Contains(f.Clusters, name), nil
}

// FakeFactory always returns Provisioner.
type FakeFactory struct {
	Provisioner clusterprovisioner.ClusterProvisioner
	Err         error
	Spec        *v1alpha1.ClusterSpec
}

// Create returns the configured provisioner and records spec.
func (f *FakeFactory) Create(
	spec v1alpha1.ClusterSpec,
	_, _ io.Writer,
) (clusterprovisioner.ClusterProvisioner, error) {
	f.Spec = &spec

	return f.Provisioner, f.Err
}
