package infra_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/svc/infra"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errInit = errors.New("init failed")

type fakeEC2 struct {
	calls int
}

func (f *fakeEC2) DescribeAvailabilityZones(
	context.Context,
	*ec2.DescribeAvailabilityZonesInput,
	...func(*ec2.Options),
) (*ec2.DescribeAvailabilityZonesOutput, error) {
	f.calls++

	var zones []ec2types.AvailabilityZone
	for _, name := range []string{"us-east-1d", "us-east-1a", "us-east-1c", "us-east-1b"} {
		zones = append(zones, ec2types.AvailabilityZone{
			ZoneName: awssdk.String(name),
			State:    ec2types.AvailabilityZoneStateAvailable,
		})
	}

	return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: zones}, nil
}

func TestMain(m *testing.M) {
	exitCode := m.Run()

	_, err := snaps.Clean(m, snaps.CleanOpts{Sort: true})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to clean snapshots: " + err.Error() + "\n")

		os.Exit(1)
	}

	os.Exit(exitCode)
}

func defaultInfra(t *testing.T) v1alpha1.InfraSpec {
	t.Helper()

	spec := v1alpha1.NewEnvironment().Spec.Infra
	spec.OutputDir = filepath.Join(t.TempDir(), "infra")

	return spec
}

func TestRenderDiscoversZones(t *testing.T) {
	t.Parallel()

	api := &fakeEC2{}

	rendered, err := infra.Render(context.Background(), defaultInfra(t), api)
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls)
	assert.Equal(t, []string{"us-east-1a", "us-east-1b", "us-east-1c"}, rendered.Zones)
	assert.Len(t, rendered.Topology.PrivateSubnets, 3)
}

func TestRenderUsesConfiguredZones(t *testing.T) {
	t.Parallel()

	spec := defaultInfra(t)
	spec.Network.AvailabilityZones = []string{"us-east-1b", "us-east-1f"}

	rendered, err := infra.Render(context.Background(), spec, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1b", "us-east-1f"}, rendered.Zones)
}

func TestRenderWithoutZonesOrClient(t *testing.T) {
	t.Parallel()

	_, err := infra.Render(context.Background(), defaultInfra(t), nil)
	require.ErrorIs(t, err, infra.ErrZoneDiscoveryUnavailable)
}

func TestRenderFiles(t *testing.T) {
	t.Parallel()

	spec := defaultInfra(t)

	var out bytes.Buffer

	paths, err := infra.RenderFiles(context.Background(), spec, &fakeEC2{}, &out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(spec.OutputDir, infra.NetworkFile),
		filepath.Join(spec.OutputDir, infra.ClusterFile),
	}, paths)

	first := make([]string, 0, len(paths))

	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.True(t, json.Valid(data), path)

		first = append(first, string(data))
	}

	assert.Contains(t, out.String(), infra.NetworkFile)

	_, err = infra.RenderFiles(context.Background(), spec, &fakeEC2{}, &out)
	require.NoError(t, err)

	for idx, path := range paths {
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, first[idx], string(data), "re-render changed %s", path)
	}

	for _, rendered := range first {
		snaps.MatchSnapshot(t, rendered)
	}
}

func TestRenderFilesPerAZ(t *testing.T) {
	t.Parallel()

	spec := defaultInfra(t)
	spec.Network.NATMode = v1alpha1.NATModePerAZ

	paths, err := infra.RenderFiles(context.Background(), spec, &fakeEC2{}, &bytes.Buffer{})
	require.NoError(t, err)

	for _, path := range paths {
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		snaps.MatchSnapshot(t, string(data))
	}
}

type mockTerraform struct {
	mock.Mock
}

func (m *mockTerraform) Init(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockTerraform) Plan(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *mockTerraform) Apply(ctx context.Context, autoApprove bool) error {
	return m.Called(ctx, autoApprove).Error(0)
}

func (m *mockTerraform) Destroy(ctx context.Context, autoApprove bool) error {
	return m.Called(ctx, autoApprove).Error(0)
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		op     infra.Operation
		expect func(tf *mockTerraform)
	}{
		{
			name:   "plan",
			op:     infra.OperationPlan,
			expect: func(tf *mockTerraform) { tf.On("Plan", mock.Anything).Return(nil) },
		},
		{
			name:   "apply",
			op:     infra.OperationApply,
			expect: func(tf *mockTerraform) { tf.On("Apply", mock.Anything, true).Return(nil) },
		},
		{
			name:   "destroy",
			op:     infra.OperationDestroy,
			expect: func(tf *mockTerraform) { tf.On("Destroy", mock.Anything, true).Return(nil) },
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			tf := &mockTerraform{}
			tf.On("Init", mock.Anything).Return(nil).Once()
			testCase.expect(tf)

			require.NoError(t, infra.Run(context.Background(), tf, testCase.op, true))
			tf.AssertExpectations(t)
		})
	}
}

func TestRunStopsWhenInitFails(t *testing.T) {
	t.Parallel()

	tf := &mockTerraform{}
	tf.On("Init", mock.Anything).Return(errInit)

	err := infra.Run(context.Background(), tf, infra.OperationApply, false)
	require.ErrorIs(t, err, errInit)
	tf.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRunRejectsUnknownOperation(t *testing.T) {
	t.Parallel()

	tf := &mockTerraform{}

	err := infra.Run(context.Background(), tf, "import", false)
	require.ErrorIs(t, err, infra.ErrUnknownOperation)
	tf.AssertNotCalled(t, "Init", mock.Anything)
}
