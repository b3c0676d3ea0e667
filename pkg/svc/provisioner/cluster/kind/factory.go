package kindprovisioner

import (
	"fmt"
	"io"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/fsutil"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
)

// Factory creates kind provisioners.
type Factory struct{}

var _ clusterprovisioner.Factory = Factory{}

// Create builds the kind config for spec and wraps it in a provisioner.
func (Factory) Create(
	spec v1alpha1.ClusterSpec,
	out, errOut io.Writer,
) (clusterprovisioner.ClusterProvisioner, error) {
	cfg, err := BuildConfig(spec)
	if err != nil {
		return nil, err
	}

	kubeconfig, err := fsutil.ExpandHomePath(spec.Kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("expand kubeconfig path: %w", err)
	}

	return NewKindClusterProvisioner(cfg, kubeconfig, out, errOut), nil
}
