package network_test

import (
	"net/netip"
	"os"
	"testing"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/svc/infra/network"
	"github.com/coderev/coderev-infra/pkg/svc/infra/tfjson"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeZones = []string{"us-east-1a", "us-east-1b", "us-east-1c"}

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

func matchRendered(t *testing.T, doc *tfjson.Document) {
	t.Helper()

	data, err := doc.Render()
	require.NoError(t, err)

	snaps.MatchSnapshot(t, string(data))
}

func defaultInfra() v1alpha1.InfraSpec {
	return v1alpha1.NewEnvironment().Spec.Infra
}

func TestCarve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vpc     string
		bits    int
		count   int
		want    []string
		wantErr bool
	}{
		{
			name:  "six /20 in /16",
			vpc:   "10.0.0.0/16",
			bits:  20,
			count: 6,
			want: []string{
				"10.0.0.0/20", "10.0.16.0/20", "10.0.32.0/20",
				"10.0.48.0/20", "10.0.64.0/20", "10.0.80.0/20",
			},
		},
		{
			name:  "unmasked vpc",
			vpc:   "172.16.5.9/24",
			bits:  26,
			count: 2,
			want:  []string{"172.16.5.0/26", "172.16.5.64/26"},
		},
		{name: "exact fit", vpc: "10.0.0.0/22", bits: 24, count: 4, want: []string{
			"10.0.0.0/24", "10.0.1.0/24", "10.0.2.0/24", "10.0.3.0/24",
		}},
		{name: "ipv6 /64 in /48", vpc: "fd00:10::/48", bits: 64, count: 2, want: []string{
			"fd00:10::/64", "fd00:10:0:1::/64",
		}},
		{name: "too many subnets", vpc: "10.0.0.0/22", bits: 24, count: 6, wantErr: true},
		{name: "subnet not smaller than vpc", vpc: "10.0.0.0/20", bits: 20, count: 1, wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			subnets, err := network.Carve(netip.MustParsePrefix(testCase.vpc), testCase.bits, testCase.count)
			if testCase.wantErr {
				require.ErrorIs(t, err, network.ErrAddressSpaceExhausted)

				return
			}

			require.NoError(t, err)

			got := make([]string, 0, len(subnets))
			for _, subnet := range subnets {
				got = append(got, subnet.String())
			}

			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestRenderDefaults(t *testing.T) {
	t.Parallel()

	topo, err := network.Render(defaultInfra(), threeZones)
	require.NoError(t, err)
	require.NoError(t, topo.Doc.Validate())

	assert.Equal(t, "coderev-production", topo.ClusterName)
	assert.Equal(t, tfjson.Ref("aws_vpc.this"), topo.VPC)
	assert.Len(t, topo.PublicSubnets, 3)
	assert.Len(t, topo.PrivateSubnets, 3)
	assert.Equal(t, []tfjson.Ref{"aws_nat_gateway.nat_us_east_1a"}, topo.NATGateways)

	vpc := topo.Doc.Resource["aws_vpc"]["this"]
	assert.Equal(t, "10.0.0.0/16", vpc["cidr_block"])
	assert.Equal(t, true, vpc["enable_dns_support"])
	assert.Equal(t, true, vpc["enable_dns_hostnames"])

	public := topo.Doc.Resource["aws_subnet"]["public_us_east_1b"]
	assert.Equal(t, "10.0.16.0/20", public["cidr_block"])
	assert.Equal(t, true, public["map_public_ip_on_launch"])
	assert.Equal(t, map[string]string{
		"Name":                                      "coderev-production-public-us-east-1b",
		"kubernetes.io/role/elb":                    "1",
		"kubernetes.io/cluster/coderev-production": "shared",
	}, public["tags"])

	private := topo.Doc.Resource["aws_subnet"]["private_us_east_1a"]
	assert.Equal(t, "10.0.48.0/20", private["cidr_block"])
	assert.NotContains(t, private, "map_public_ip_on_launch")
	assert.Contains(t, private["tags"], "kubernetes.io/role/internal-elb")

	for _, zone := range []string{"us_east_1a", "us_east_1b", "us_east_1c"} {
		route := topo.Doc.Resource["aws_route"]["private_"+zone+"_nat"]
		assert.Equal(t, "${aws_nat_gateway.nat_us_east_1a.id}", route["nat_gateway_id"], zone)
	}

	eip := topo.Doc.Resource["aws_eip"]["nat_us_east_1a"]
	assert.Equal(t, []string{"aws_internet_gateway.this"}, eip["depends_on"])

	assert.Equal(t, "ALL", topo.Doc.Resource["aws_flow_log"]["this"]["traffic_type"])
	assert.Equal(t, 14, topo.Doc.Resource["aws_cloudwatch_log_group"]["flow_logs"]["retention_in_days"])

	assert.ElementsMatch(t,
		[]string{"vpc_id", "public_subnet_ids", "private_subnet_ids", "nat_gateway_ids"},
		keys(topo.Doc.Output))

	matchRendered(t, topo.Doc)
}

func TestRenderPerAZ(t *testing.T) {
	t.Parallel()

	spec := defaultInfra()
	spec.Network.NATMode = v1alpha1.NATModePerAZ
	spec.Network.FlowLogs.Enabled = false

	topo, err := network.Render(spec, threeZones)
	require.NoError(t, err)
	require.NoError(t, topo.Doc.Validate())

	assert.Len(t, topo.NATGateways, 3)
	assert.Len(t, topo.Doc.Resource["aws_eip"], 3)
	assert.Equal(t,
		"${aws_nat_gateway.nat_us_east_1c.id}",
		topo.Doc.Resource["aws_route"]["private_us_east_1c_nat"]["nat_gateway_id"])
	assert.Equal(t,
		"${aws_subnet.public_us_east_1c.id}",
		topo.Doc.Resource["aws_nat_gateway"]["nat_us_east_1c"]["subnet_id"])
	assert.NotContains(t, topo.Doc.Resource, "aws_flow_log")
	assert.NotContains(t, topo.Doc.Resource, "aws_iam_role")

	matchRendered(t, topo.Doc)
}

func TestRenderIsDeterministic(t *testing.T) {
	t.Parallel()

	render := func() string {
		topo, err := network.Render(defaultInfra(), threeZones)
		require.NoError(t, err)

		data, err := topo.Doc.Render()
		require.NoError(t, err)

		return string(data)
	}

	assert.Equal(t, render(), render())
}

func TestRenderRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(spec *v1alpha1.InfraSpec)
		zones   []string
		wantErr error
	}{
		{name: "no zones", mutate: func(*v1alpha1.InfraSpec) {}, zones: nil, wantErr: v1alpha1.ErrInvalidZones},
		{
			name:    "duplicate zones",
			mutate:  func(*v1alpha1.InfraSpec) {},
			zones:   []string{"us-east-1a", "us-east-1a"},
			wantErr: v1alpha1.ErrInvalidZones,
		},
		{
			name:    "vpc too small",
			mutate:  func(spec *v1alpha1.InfraSpec) { spec.Network.CIDR = "10.0.0.0/19" },
			zones:   threeZones,
			wantErr: network.ErrAddressSpaceExhausted,
		},
		{
			name:    "bad nat mode",
			mutate:  func(spec *v1alpha1.InfraSpec) { spec.Network.NATMode = "none" },
			zones:   threeZones,
			wantErr: v1alpha1.ErrInvalidNATMode,
		},
		{
			name:    "bad retention",
			mutate:  func(spec *v1alpha1.InfraSpec) { spec.Network.FlowLogs.RetentionDays = 10 },
			zones:   threeZones,
			wantErr: v1alpha1.ErrInvalidRetention,
		},
		{
			name:    "bad cidr",
			mutate:  func(spec *v1alpha1.InfraSpec) { spec.Network.CIDR = "not-a-cidr" },
			zones:   threeZones,
			wantErr: v1alpha1.ErrInvalidCIDR,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			spec := defaultInfra()
			testCase.mutate(&spec)

			_, err := network.Render(spec, testCase.zones)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}

	return out
}
