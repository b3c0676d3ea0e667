package helpers

import (
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/fsutil"
	"github.com/coderev/coderev-infra/pkg/k8s"
)

// KubeTarget returns the kubeconfig path (home-expanded, default when unset) and the kind
// context of the local cluster.
func KubeTarget(spec v1alpha1.ClusterSpec) (string, string, error) {
	kubeconfig := spec.Kubeconfig
	if kubeconfig == "" {
		kubeconfig = k8s.DefaultKubeconfigPath()
	}

	expanded, err := fsutil.ExpandHomePath(kubeconfig)
	if err != nil {
		return "", "", fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	return expanded, k8s.KindContext(spec.Name), nil
}
