package configmanager

import (
	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
)

// FieldSelector binds a command flag to one Environment field.
type FieldSelector struct {
	// Flag is the long flag name.
	Flag string
	// Description is the flag usage text.
	Description string
	// Selector returns a pointer to the bound field.
	Selector func(*v1alpha1.Environment) any
}

// ClusterNameField binds --name.
func ClusterNameField() FieldSelector {
	return FieldSelector{
		Flag:        "name",
		Description: "Name of the local kind cluster",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.Name },
	}
}

// WorkersField binds --workers.
func WorkersField() FieldSelector {
	return FieldSelector{
		Flag:        "workers",
		Description: "Number of worker nodes next to the control-plane",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.Workers },
	}
}

// NodeImageField binds --node-image.
func NodeImageField() FieldSelector {
	return FieldSelector{
		Flag:        "node-image",
		Description: "Node image for the kind cluster (kind default when empty)",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.NodeImage },
	}
}

// HTTPPortField binds --http-port.
func HTTPPortField() FieldSelector {
	return FieldSelector{
		Flag:        "http-port",
		Description: "Host port mapped to the ingress HTTP port",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.HTTPPort },
	}
}

// HTTPSPortField binds --https-port.
func HTTPSPortField() FieldSelector {
	return FieldSelector{
		Flag:        "https-port",
		Description: "Host port mapped to the ingress HTTPS port",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.HTTPSPort },
	}
}

// KubeconfigField binds --kubeconfig.
func KubeconfigField() FieldSelector {
	return FieldSelector{
		Flag:        "kubeconfig",
		Description: "Path to the kubeconfig file",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Cluster.Kubeconfig },
	}
}

// NamespaceField binds --namespace.
func NamespaceField() FieldSelector {
	return FieldSelector{
		Flag:        "namespace",
		Description: "Namespace the application is deployed to",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Namespace },
	}
}

// EnvFileField binds --env-file.
func EnvFileField() FieldSelector {
	return FieldSelector{
		Flag:        "env-file",
		Description: "Local environment file holding credentials",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Secrets.EnvFile },
	}
}

// SecretsFileField binds --output.
func SecretsFileField() FieldSelector {
	return FieldSelector{
		Flag:        "output",
		Description: "Secrets file consumed by the overlay",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Secrets.OutputFile },
	}
}

// ImageContextField binds --context.
func ImageContextField() FieldSelector {
	return FieldSelector{
		Flag:        "context",
		Description: "Build context shared by all images",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Images.Context },
	}
}

// IngressManifestField binds --manifest-url.
func IngressManifestField() FieldSelector {
	return FieldSelector{
		Flag:        "manifest-url",
		Description: "URL of the ingress controller manifest",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Ingress.ManifestURL },
	}
}

// IngressTimeoutField binds --timeout for ingress install.
func IngressTimeoutField() FieldSelector {
	return FieldSelector{
		Flag:        "timeout",
		Description: "How long to wait for the ingress controller to become ready",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Ingress.Timeout },
	}
}

// OverlaysDirField binds --overlays-dir.
func OverlaysDirField() FieldSelector {
	return FieldSelector{
		Flag:        "overlays-dir",
		Description: "Directory holding the kustomize overlays",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Deploy.OverlaysDir },
	}
}

// ValidateField binds --validate.
func ValidateField() FieldSelector {
	return FieldSelector{
		Flag:        "validate",
		Description: "Validate rendered manifests against Kubernetes schemas before applying",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Deploy.Validate },
	}
}

// DeleteClusterField binds --delete-cluster.
func DeleteClusterField() FieldSelector {
	return FieldSelector{
		Flag:        "delete-cluster",
		Description: "Also delete the local kind cluster",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Teardown.DeleteCluster },
	}
}

// ProbeField binds --probe.
func ProbeField() FieldSelector {
	return FieldSelector{
		Flag:        "probe",
		Description: "Probe the API health endpoints through the ingress",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Status.Probe },
	}
}

// RegionField binds --region.
func RegionField() FieldSelector {
	return FieldSelector{
		Flag:        "region",
		Description: "Cloud region of the infrastructure",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Infra.Region },
	}
}

// InfraOutputField binds --out.
func InfraOutputField() FieldSelector {
	return FieldSelector{
		Flag:        "out",
		Description: "Directory the Terraform JSON files are written to",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Infra.OutputDir },
	}
}

// NATModeField binds --nat-mode.
func NATModeField() FieldSelector {
	return FieldSelector{
		Flag:        "nat-mode",
		Description: "NAT gateway layout (single, per-az)",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Infra.Network.NATMode },
	}
}

// ZonesField binds --zones.
func ZonesField() FieldSelector {
	return FieldSelector{
		Flag:        "zones",
		Description: "Availability zones (discovered from the region when empty)",
		Selector:    func(e *v1alpha1.Environment) any { return &e.Spec.Infra.Network.AvailabilityZones },
	}
}

// ClusterFields returns the selectors of the local cluster commands.
func ClusterFields() []FieldSelector {
	return []FieldSelector{
		ClusterNameField(),
		WorkersField(),
		NodeImageField(),
		HTTPPortField(),
		HTTPSPortField(),
	}
}

// InfraFields returns the selectors of the infra commands.
func InfraFields() []FieldSelector {
	return []FieldSelector{RegionField(), InfraOutputField(), NATModeField(), ZonesField()}
}
