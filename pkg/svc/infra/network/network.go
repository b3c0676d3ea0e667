// Package network renders the production VPC topology as Terraform JSON.
package network

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/svc/infra/tfjson"
	"github.com/samber/lo"
)

// Provider constraints shared by every rendered document.
const (
	TerraformVersion  = ">= 1.5.0"
	AWSProviderSource = "hashicorp/aws"
	AWSProvider       = "~> 5.0"
	TLSProviderSource = "hashicorp/tls"
	TLSProvider       = "~> 4.0"
	RegionVariable    = "region"
)

// Topology is a rendered network together with the addresses other documents reference.
type Topology struct {
	Doc            *tfjson.Document
	ClusterName    string
	Zones          []string
	VPC            tfjson.Ref
	PublicSubnets  []tfjson.Ref
	PrivateSubnets []tfjson.Ref
	NATGateways    []tfjson.Ref
}

// ClusterName is the managed cluster name derived from project and environment.
func ClusterName(name, env string) string {
	return name + "-" + env
}

// Render builds the network document for the given zones.
func Render(spec v1alpha1.InfraSpec, zones []string) (*Topology, error) {
	netSpec := spec.Network

	err := validate(netSpec, zones)
	if err != nil {
		return nil, err
	}

	vpcPrefix, err := netip.ParsePrefix(netSpec.CIDR)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", v1alpha1.ErrInvalidCIDR, netSpec.CIDR, err)
	}

	subnets, err := Carve(vpcPrefix, netSpec.SubnetPrefix, 2*len(zones))
	if err != nil {
		return nil, err
	}

	clusterName := ClusterName(spec.Name, spec.Environment)
	doc := newDocument(spec)

	topo := &Topology{Doc: doc, ClusterName: clusterName, Zones: zones}

	topo.VPC = doc.AddResource("aws_vpc", "this", tfjson.Block{
		"cidr_block":           vpcPrefix.Masked().String(),
		"enable_dns_support":   true,
		"enable_dns_hostnames": true,
		"tags":                 nameTag(clusterName + "-vpc"),
	})

	igw := doc.AddResource("aws_internet_gateway", "this", tfjson.Block{
		"vpc_id": topo.VPC.ID(),
		"tags":   nameTag(clusterName + "-igw"),
	})

	clusterTag := "kubernetes.io/cluster/" + clusterName

	for idx, zone := range zones {
		suffix := resourceSuffix(zone)

		topo.PublicSubnets = append(topo.PublicSubnets, doc.AddResource("aws_subnet", "public_"+suffix, tfjson.Block{
			"vpc_id":                  topo.VPC.ID(),
			"cidr_block":              subnets[idx].String(),
			"availability_zone":       zone,
			"map_public_ip_on_launch": true,
			"tags": map[string]string{
				"Name":                   clusterName + "-public-" + zone,
				"kubernetes.io/role/elb": "1",
				clusterTag:               "shared",
			},
		}))

		topo.PrivateSubnets = append(topo.PrivateSubnets, doc.AddResource("aws_subnet", "private_"+suffix, tfjson.Block{
			"vpc_id":            topo.VPC.ID(),
			"cidr_block":        subnets[len(zones)+idx].String(),
			"availability_zone": zone,
			"tags": map[string]string{
				"Name":                            clusterName + "-private-" + zone,
				"kubernetes.io/role/internal-elb": "1",
				clusterTag:                        "shared",
			},
		}))
	}

	topo.addNATGateways(netSpec.NATMode, igw)
	topo.addRouting(igw)

	if netSpec.FlowLogs.Enabled {
		topo.addFlowLogs(netSpec.FlowLogs)
	}

	doc.AddOutput("vpc_id", "ID of the VPC", topo.VPC.ID())
	doc.AddOutput("public_subnet_ids", "IDs of the public subnets", ids(topo.PublicSubnets))
	doc.AddOutput("private_subnet_ids", "IDs of the private subnets", ids(topo.PrivateSubnets))
	doc.AddOutput("nat_gateway_ids", "IDs of the NAT gateways", ids(topo.NATGateways))

	return topo, nil
}

func validate(netSpec v1alpha1.NetworkSpec, zones []string) error {
	// Zones are resolved by now, so the discovery count does not matter.
	netSpec.AvailabilityZones = zones
	errs := lo.Filter(netSpec.Validate(), func(err error, _ int) bool {
		return !errors.Is(err, v1alpha1.ErrInvalidZones)
	})

	if len(zones) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one zone is required", v1alpha1.ErrInvalidZones))
	}

	if dupes := lo.FindDuplicates(zones); len(dupes) > 0 {
		errs = append(errs, fmt.Errorf("%w: duplicate zones %v", v1alpha1.ErrInvalidZones, dupes))
	}

	return errors.Join(errs...)
}

// newDocument declares the terraform, provider, and variable blocks.
func newDocument(spec v1alpha1.InfraSpec) *tfjson.Document {
	doc := tfjson.New()
	doc.RequireVersion(TerraformVersion)
	doc.RequireProvider("aws", AWSProviderSource, AWSProvider)
	doc.RequireProvider("tls", TLSProviderSource, TLSProvider)

	doc.AddVariable(RegionVariable, tfjson.Block{
		"type":        "string",
		"description": "AWS region to deploy into",
		"default":     spec.Region,
	})

	doc.SetProvider("aws", tfjson.Block{
		"region": tfjson.Var(RegionVariable),
		"default_tags": tfjson.Block{
			"tags": map[string]string{
				"Project":     spec.Name,
				"Environment": spec.Environment,
				"ManagedBy":   "terraform",
			},
		},
	})

	return doc
}

func (t *Topology) addNATGateways(mode v1alpha1.NATMode, igw tfjson.Ref) {
	count := 1
	if mode == v1alpha1.NATModePerAZ {
		count = len(t.Zones)
	}

	for idx := range count {
		suffix := resourceSuffix(t.Zones[idx])

		eip := t.Doc.AddResource("aws_eip", "nat_"+suffix, tfjson.Block{
			"domain":     "vpc",
			"tags":       nameTag(t.ClusterName + "-nat-" + t.Zones[idx]),
			"depends_on": []string{igw.Address()},
		})

		t.NATGateways = append(t.NATGateways, t.Doc.AddResource("aws_nat_gateway", "nat_"+suffix, tfjson.Block{
			"allocation_id": eip.ID(),
			"subnet_id":     t.PublicSubnets[idx].ID(),
			"tags":          nameTag(t.ClusterName + "-nat-" + t.Zones[idx]),
			"depends_on":    []string{igw.Address()},
		}))
	}
}

func (t *Topology) addRouting(igw tfjson.Ref) {
	public := t.Doc.AddResource("aws_route_table", "public", tfjson.Block{
		"vpc_id": t.VPC.ID(),
		"tags":   nameTag(t.ClusterName + "-public"),
	})

	t.Doc.AddResource("aws_route", "public_internet", tfjson.Block{
		"route_table_id":         public.ID(),
		"destination_cidr_block": "0.0.0.0/0",
		"gateway_id":             igw.ID(),
	})

	for idx, zone := range t.Zones {
		suffix := resourceSuffix(zone)

		t.Doc.AddResource("aws_route_table_association", "public_"+suffix, tfjson.Block{
			"subnet_id":      t.PublicSubnets[idx].ID(),
			"route_table_id": public.ID(),
		})

		private := t.Doc.AddResource("aws_route_table", "private_"+suffix, tfjson.Block{
			"vpc_id": t.VPC.ID(),
			"tags":   nameTag(t.ClusterName + "-private-" + zone),
		})

		nat := t.NATGateways[min(idx, len(t.NATGateways)-1)]

		t.Doc.AddResource("aws_route", "private_"+suffix+"_nat", tfjson.Block{
			"route_table_id":         private.ID(),
			"destination_cidr_block": "0.0.0.0/0",
			"nat_gateway_id":         nat.ID(),
		})

		t.Doc.AddResource("aws_route_table_association", "private_"+suffix, tfjson.Block{
			"subnet_id":      t.PrivateSubnets[idx].ID(),
			"route_table_id": private.ID(),
		})
	}
}

func (t *Topology) addFlowLogs(spec v1alpha1.FlowLogsSpec) {
	logGroup := t.Doc.AddResource("aws_cloudwatch_log_group", "flow_logs", tfjson.Block{
		"name":              "/aws/vpc/" + t.ClusterName + "/flow-logs",
		"retention_in_days": spec.RetentionDays,
	})

	role := t.Doc.AddResource("aws_iam_role", "flow_logs", tfjson.Block{
		"name":               t.ClusterName + "-vpc-flow-logs",
		"assume_role_policy": tfjson.AssumeRolePolicy("vpc-flow-logs.amazonaws.com"),
	})

	t.Doc.AddResource("aws_iam_role_policy", "flow_logs", tfjson.Block{
		"name": t.ClusterName + "-vpc-flow-logs",
		"role": role.ID(),
		"policy": tfjson.Policy(tfjson.Statement{
			Effect: "Allow",
			Action: []string{
				"logs:CreateLogStream",
				"logs:PutLogEvents",
				"logs:DescribeLogGroups",
				"logs:DescribeLogStreams",
			},
			Resource: []string{logGroup.Attr("arn"), logGroup.Attr("arn") + ":*"},
		}),
	})

	t.Doc.AddResource("aws_flow_log", "this", tfjson.Block{
		"vpc_id":          t.VPC.ID(),
		"traffic_type":    spec.TrafficType,
		"iam_role_arn":    role.Attr("arn"),
		"log_destination": logGroup.Attr("arn"),
	})
}

// resourceSuffix turns a zone name into a Terraform identifier fragment.
func resourceSuffix(zone string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToLower(zone))
}

func nameTag(name string) map[string]string {
	return map[string]string{"Name": name}
}

func ids(refs []tfjson.Ref) []string {
	return lo.Map(refs, func(ref tfjson.Ref, _ int) string { return ref.ID() })
}
