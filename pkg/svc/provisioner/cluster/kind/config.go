package kindprovisioner

import (
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	"sigs.k8s.io/yaml"
)

const (
	// IngressReadyLabel marks the node the ingress controller schedules onto.
	IngressReadyLabel = "ingress-ready"

	httpContainerPort  = 80
	httpsContainerPort = 443
	maxPort            = 65535
)

const ingressReadyPatch = `kind: InitConfiguration
nodeRegistration:
  kubeletExtraArgs:
    node-labels: "` + IngressReadyLabel + `=true"
`

// BuildConfig turns the cluster section of the environment into a kind topology: one
// control-plane node wired for ingress on the host ports, plus the requested workers.
func BuildConfig(spec v1alpha1.ClusterSpec) (*v1alpha4.Cluster, error) {
	for _, port := range []int32{spec.HTTPPort, spec.HTTPSPort} {
		if port < 1 || port > maxPort {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPortMapping, port)
		}
	}

	controlPlane := v1alpha4.Node{
		Role:                 v1alpha4.ControlPlaneRole,
		Image:                spec.NodeImage,
		KubeadmConfigPatches: []string{ingressReadyPatch},
		ExtraPortMappings: []v1alpha4.PortMapping{
			{ContainerPort: httpContainerPort, HostPort: spec.HTTPPort, Protocol: v1alpha4.PortMappingProtocolTCP},
			{ContainerPort: httpsContainerPort, HostPort: spec.HTTPSPort, Protocol: v1alpha4.PortMappingProtocolTCP},
		},
	}

	nodes := []v1alpha4.Node{controlPlane}
	for range spec.Workers {
		nodes = append(nodes, v1alpha4.Node{Role: v1alpha4.WorkerRole, Image: spec.NodeImage})
	}

	return &v1alpha4.Cluster{
		TypeMeta: v1alpha4.TypeMeta{Kind: "Cluster", APIVersion: "kind.x-k8s.io/v1alpha4"},
		Name:     spec.Name,
		Nodes:    nodes,
	}, nil
}

// MarshalConfig renders a kind config as YAML.
func MarshalConfig(cfg *v1alpha4.Cluster) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal kind config: %w", err)
	}

	return data, nil
}
