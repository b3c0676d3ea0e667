package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// Group is the API group of the Environment type.
	Group = "coderev.dev"
	// Version is the API version of the Environment type.
	Version = "v1alpha1"
	// Kind is the kind of the Environment type.
	Kind = "Environment"
	// APIVersion is the combined group/version string.
	APIVersion = Group + "/" + Version
)

// Environment is the operator configuration read from coderev.yaml.
type Environment struct {
	metav1.TypeMeta `json:",inline"`

	Spec Spec `json:"spec"`
}

// Spec groups the settings of each command family.
type Spec struct {
	Cluster   ClusterSpec  `json:"cluster"`
	Namespace string       `json:"namespace"`
	Secrets   SecretsSpec  `json:"secrets"`
	Images    ImagesSpec   `json:"images"`
	Ingress   IngressSpec  `json:"ingress"`
	Deploy    DeploySpec   `json:"deploy"`
	Teardown  TeardownSpec `json:"teardown"`
	Status    StatusSpec   `json:"status"`
	Infra     InfraSpec    `json:"infra"`
}

// ClusterSpec describes the local kind cluster.
type ClusterSpec struct {
	Name       string `json:"name"`
	Workers    int32  `json:"workers"`
	NodeImage  string `json:"nodeImage,omitempty"`
	HTTPPort   int32  `json:"httpPort"`
	HTTPSPort  int32  `json:"httpsPort"`
	Kubeconfig string `json:"kubeconfig,omitempty"`
}

// SecretsSpec locates the environment file and the derived secrets file.
type SecretsSpec struct {
	EnvFile       string `json:"envFile"`
	OutputFile    string `json:"outputFile"`
	GitignoreFile string `json:"gitignoreFile"`
}

// Image is one image built from the shared context.
type Image struct {
	Name       string `json:"name"`
	Dockerfile string `json:"dockerfile"`
}

// ImagesSpec lists the images built and loaded into the cluster.
type ImagesSpec struct {
	Context string  `json:"context"`
	Images  []Image `json:"images"`
}

// IngressSpec describes the ingress controller bootstrap.
type IngressSpec struct {
	ManifestURL string          `json:"manifestURL"`
	Namespace   string          `json:"namespace"`
	Selector    string          `json:"selector"`
	Timeout     metav1.Duration `json:"timeout"`
}

// Rollout is a deployment waited on after apply.
type Rollout struct {
	Name    string          `json:"name"`
	Timeout metav1.Duration `json:"timeout"`
}

// DeploySpec describes how overlays are rendered, applied, and awaited.
type DeploySpec struct {
	OverlaysDir string    `json:"overlaysDir"`
	Overlay     string    `json:"overlay"`
	Validate    bool      `json:"validate"`
	Rollouts    []Rollout `json:"rollouts"`
	BaseURL     string    `json:"baseURL"`
}

// TeardownSpec controls what teardown removes.
type TeardownSpec struct {
	DeleteCluster bool            `json:"deleteCluster"`
	Timeout       metav1.Duration `json:"timeout"`
}

// StatusSpec controls the status report.
type StatusSpec struct {
	Probe        bool            `json:"probe"`
	ProbeTimeout metav1.Duration `json:"probeTimeout"`
}

// InfraSpec describes the cloud network and managed cluster templates.
type InfraSpec struct {
	Name        string             `json:"name"`
	Environment string             `json:"environment"`
	Region      string             `json:"region"`
	OutputDir   string             `json:"outputDir"`
	Network     NetworkSpec        `json:"network"`
	Cluster     ManagedClusterSpec `json:"cluster"`
}

// NetworkSpec describes the VPC topology.
type NetworkSpec struct {
	CIDR              string       `json:"cidr"`
	AvailabilityZones []string     `json:"availabilityZones,omitempty"`
	ZoneCount         int          `json:"zoneCount"`
	SubnetPrefix      int          `json:"subnetPrefix"`
	NATMode           NATMode      `json:"natMode"`
	FlowLogs          FlowLogsSpec `json:"flowLogs"`
}

// FlowLogsSpec describes VPC flow log capture.
type FlowLogsSpec struct {
	Enabled       bool   `json:"enabled"`
	RetentionDays int    `json:"retentionDays"`
	TrafficType   string `json:"trafficType"`
}

// ManagedClusterSpec describes the EKS cluster.
type ManagedClusterSpec struct {
	Version               string       `json:"version"`
	EndpointPrivateAccess bool         `json:"endpointPrivateAccess"`
	EndpointPublicAccess  bool         `json:"endpointPublicAccess"`
	PublicAccessCIDRs     []string     `json:"publicAccessCIDRs,omitempty"`
	EnableIRSA            bool         `json:"enableIRSA"`
	NodePool              NodePoolSpec `json:"nodePool"`
}

// NodePoolSpec describes the autoscaling managed node group.
type NodePoolSpec struct {
	Name          string   `json:"name"`
	InstanceTypes []string `json:"instanceTypes"`
	CapacityType  string   `json:"capacityType"`
	MinSize       int      `json:"minSize"`
	DesiredSize   int      `json:"desiredSize"`
	MaxSize       int      `json:"maxSize"`
	DiskSize      int      `json:"diskSize"`
}
