package v1alpha1

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Default values applied before coderev.yaml, the environment, and flags.
const (
	DefaultClusterName   = "coderev"
	DefaultNamespace     = "coderev"
	DefaultHTTPPort      = 80
	DefaultHTTPSPort     = 443
	DefaultEnvFile       = ".env"
	DefaultSecretsFile   = "k8s/overlays/local/secrets.env"
	DefaultGitignoreFile = ".gitignore"
	DefaultImageContext  = "."
	DefaultOverlaysDir   = "k8s/overlays"
	DefaultOverlay       = "local"
	DefaultBaseURL       = "http://localhost"
	DefaultIngressURL    = "https://raw.githubusercontent.com/kubernetes/ingress-nginx/main/deploy/static/provider/kind/deploy.yaml"
	DefaultIngressNS     = "ingress-nginx"
	DefaultIngressLabel  = "app.kubernetes.io/component=controller"
	DefaultIngressWait   = 90 * time.Second
	DefaultTeardownWait  = 120 * time.Second
	DefaultProbeTimeout  = 5 * time.Second

	DefaultInfraName       = "coderev"
	DefaultInfraEnv        = "production"
	DefaultRegion          = "us-east-1"
	DefaultInfraOutputDir  = "infra"
	DefaultVPCCIDR         = "10.0.0.0/16"
	DefaultZoneCount       = 3
	DefaultSubnetPrefix    = 20
	DefaultFlowLogDays     = 14
	DefaultFlowLogTraffic  = "ALL"
	DefaultClusterVersion  = "1.29"
	DefaultNodePoolName    = "default"
	DefaultInstanceType    = "t3.medium"
	DefaultCapacityType    = "ON_DEMAND"
	DefaultNodeMinSize     = 1
	DefaultNodeDesiredSize = 2
	DefaultNodeMaxSize     = 3
	DefaultNodeDiskSize    = 50
)

// DefaultRollouts returns the deployments awaited after apply, in order.
func DefaultRollouts() []Rollout {
	return []Rollout{
		{Name: "postgres", Timeout: metav1.Duration{Duration: 120 * time.Second}},
		{Name: "redis", Timeout: metav1.Duration{Duration: 60 * time.Second}},
		{Name: "coderev-api", Timeout: metav1.Duration{Duration: 180 * time.Second}},
		{Name: "coderev-worker", Timeout: metav1.Duration{Duration: 180 * time.Second}},
	}
}

// DefaultImages returns the images built from the repository root.
func DefaultImages() []Image {
	return []Image{
		{Name: "coderev-api:latest", Dockerfile: "Dockerfile.api"},
		{Name: "coderev-worker:latest", Dockerfile: "Dockerfile.worker"},
	}
}

// NewEnvironment returns an Environment populated with every default.
func NewEnvironment() *Environment {
	return &Environment{
		TypeMeta: metav1.TypeMeta{APIVersion: APIVersion, Kind: Kind},
		Spec: Spec{
			Cluster: ClusterSpec{
				Name:      DefaultClusterName,
				HTTPPort:  DefaultHTTPPort,
				HTTPSPort: DefaultHTTPSPort,
			},
			Namespace: DefaultNamespace,
			Secrets: SecretsSpec{
				EnvFile:       DefaultEnvFile,
				OutputFile:    DefaultSecretsFile,
				GitignoreFile: DefaultGitignoreFile,
			},
			Images: ImagesSpec{Context: DefaultImageContext, Images: DefaultImages()},
			Ingress: IngressSpec{
				ManifestURL: DefaultIngressURL,
				Namespace:   DefaultIngressNS,
				Selector:    DefaultIngressLabel,
				Timeout:     metav1.Duration{Duration: DefaultIngressWait},
			},
			Deploy: DeploySpec{
				OverlaysDir: DefaultOverlaysDir,
				Overlay:     DefaultOverlay,
				Rollouts:    DefaultRollouts(),
				BaseURL:     DefaultBaseURL,
			},
			Teardown: TeardownSpec{Timeout: metav1.Duration{Duration: DefaultTeardownWait}},
			Status:   StatusSpec{ProbeTimeout: metav1.Duration{Duration: DefaultProbeTimeout}},
			Infra: InfraSpec{
				Name:        DefaultInfraName,
				Environment: DefaultInfraEnv,
				Region:      DefaultRegion,
				OutputDir:   DefaultInfraOutputDir,
				Network: NetworkSpec{
					CIDR:         DefaultVPCCIDR,
					ZoneCount:    DefaultZoneCount,
					SubnetPrefix: DefaultSubnetPrefix,
					NATMode:      NATModeSingle,
					FlowLogs: FlowLogsSpec{
						Enabled:       true,
						RetentionDays: DefaultFlowLogDays,
						TrafficType:   DefaultFlowLogTraffic,
					},
				},
				Cluster: ManagedClusterSpec{
					Version:               DefaultClusterVersion,
					EndpointPrivateAccess: true,
					EndpointPublicAccess:  true,
					EnableIRSA:            true,
					NodePool: NodePoolSpec{
						Name:          DefaultNodePoolName,
						InstanceTypes: []string{DefaultInstanceType},
						CapacityType:  DefaultCapacityType,
						MinSize:       DefaultNodeMinSize,
						DesiredSize:   DefaultNodeDesiredSize,
						MaxSize:       DefaultNodeMaxSize,
						DiskSize:      DefaultNodeDiskSize,
					},
				},
			},
		},
	}
}

// OverlayDir returns the directory of the named overlay.
func (s *DeploySpec) OverlayDir(overlay string) string {
	if overlay == "" {
		overlay = s.Overlay
	}

	return s.OverlaysDir + "/" + overlay
}
