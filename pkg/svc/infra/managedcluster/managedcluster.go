// Package managedcluster renders the production EKS cluster as Terraform JSON.
package managedcluster

import (
	"errors"
	"fmt"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/svc/infra/network"
	"github.com/coderev/coderev-infra/pkg/svc/infra/tfjson"
	"github.com/samber/lo"
)

// ErrNoPrivateSubnets is returned when the topology has nowhere to place the cluster.
var ErrNoPrivateSubnets = errors.New("network topology has no private subnets")

const managedPolicyPrefix = "arn:aws:iam::aws:policy/"

// NodePolicies returns the managed policies attached to the node role.
func NodePolicies() []string {
	return []string{
		"AmazonEKSWorkerNodePolicy",
		"AmazonEKS_CNI_Policy",
		"AmazonEC2ContainerRegistryReadOnly",
	}
}

// Render declares the cluster, its node group, and their IAM wiring inside topo's network.
// The document carries no terraform or provider block; it is rendered next to the network
// document and shares its configuration.
func Render(spec v1alpha1.ManagedClusterSpec, topo *network.Topology) (*tfjson.Document, error) {
	err := errors.Join(spec.Validate()...)
	if err != nil {
		return nil, err
	}

	if len(topo.PrivateSubnets) == 0 {
		return nil, ErrNoPrivateSubnets
	}

	doc := tfjson.New()
	name := topo.ClusterName
	subnetIDs := lo.Map(topo.PrivateSubnets, func(ref tfjson.Ref, _ int) string { return ref.ID() })

	clusterRole := doc.AddResource("aws_iam_role", "cluster", tfjson.Block{
		"name":               name + "-cluster",
		"assume_role_policy": tfjson.AssumeRolePolicy("eks.amazonaws.com"),
	})

	clusterPolicy := doc.AddResource("aws_iam_role_policy_attachment", "cluster_AmazonEKSClusterPolicy", tfjson.Block{
		"role":       clusterRole.Attr("name"),
		"policy_arn": managedPolicyPrefix + "AmazonEKSClusterPolicy",
	})

	vpcConfig := tfjson.Block{
		"subnet_ids":              subnetIDs,
		"endpoint_private_access": spec.EndpointPrivateAccess,
		"endpoint_public_access":  spec.EndpointPublicAccess,
	}
	if spec.EndpointPublicAccess && len(spec.PublicAccessCIDRs) > 0 {
		vpcConfig["public_access_cidrs"] = spec.PublicAccessCIDRs
	}

	cluster := doc.AddResource("aws_eks_cluster", "this", tfjson.Block{
		"name":       name,
		"version":    spec.Version,
		"role_arn":   clusterRole.Attr("arn"),
		"vpc_config": vpcConfig,
		"depends_on": []string{clusterPolicy.Address()},
	})

	nodeRole := doc.AddResource("aws_iam_role", "node", tfjson.Block{
		"name":               name + "-node",
		"assume_role_policy": tfjson.AssumeRolePolicy("ec2.amazonaws.com"),
	})

	nodeDeps := make([]string, 0, len(NodePolicies()))

	for _, policy := range NodePolicies() {
		attachment := doc.AddResource("aws_iam_role_policy_attachment", "node_"+policy, tfjson.Block{
			"role":       nodeRole.Attr("name"),
			"policy_arn": managedPolicyPrefix + policy,
		})
		nodeDeps = append(nodeDeps, attachment.Address())
	}

	pool := spec.NodePool

	doc.AddResource("aws_eks_node_group", pool.Name, tfjson.Block{
		"cluster_name":    cluster.Attr("name"),
		"node_group_name": name + "-" + pool.Name,
		"node_role_arn":   nodeRole.Attr("arn"),
		"subnet_ids":      subnetIDs,
		"instance_types":  pool.InstanceTypes,
		"capacity_type":   pool.CapacityType,
		"disk_size":       pool.DiskSize,
		"scaling_config": tfjson.Block{
			"min_size":     pool.MinSize,
			"desired_size": pool.DesiredSize,
			"max_size":     pool.MaxSize,
		},
		"update_config": tfjson.Block{"max_unavailable": 1},
		"depends_on":    nodeDeps,
	})

	doc.AddOutput("cluster_name", "Name of the EKS cluster", cluster.Attr("name"))
	doc.AddOutput("cluster_endpoint", "API server endpoint", cluster.Attr("endpoint"))
	doc.AddOutput("cluster_certificate_authority", "Base64 cluster CA certificate",
		cluster.Attr("certificate_authority[0].data"))

	if spec.EnableIRSA {
		addIRSA(doc, cluster)
	}

	return doc, nil
}

// addIRSA trusts the cluster's OIDC issuer so service accounts can assume IAM roles.
func addIRSA(doc *tfjson.Document, cluster tfjson.Ref) {
	issuer := cluster.Attr("identity[0].oidc[0].issuer")

	cert := doc.AddData("tls_certificate", "oidc", tfjson.Block{"url": issuer})

	provider := doc.AddResource("aws_iam_openid_connect_provider", "this", tfjson.Block{
		"url":             issuer,
		"client_id_list":  []string{"sts.amazonaws.com"},
		"thumbprint_list": []string{cert.Attr("certificates[0].sha1_fingerprint")},
	})

	doc.AddOutput("oidc_provider_arn", "ARN of the IAM OIDC provider", provider.Attr("arn"))
}

// Describe summarises what Render declares, for CLI output.
func Describe(spec v1alpha1.ManagedClusterSpec, topo *network.Topology) string {
	pool := spec.NodePool

	return fmt.Sprintf("EKS %s %s, node group %s (%v, %d/%d/%d) in %d private subnets",
		topo.ClusterName, spec.Version, pool.Name, pool.InstanceTypes,
		pool.MinSize, pool.DesiredSize, pool.MaxSize, len(topo.PrivateSubnets))
}
