package infra_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/infra"
	"github.com/coderev/coderev-infra/pkg/client/aws"
	"github.com/coderev/coderev-infra/pkg/di"
	infrasvc "github.com/coderev/coderev-infra/pkg/svc/infra"
	"github.com/coderev/coderev-infra/pkg/svc/preflight"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoCredentials = errors.New("no EC2 IMDS role found")

type fakeSTS struct {
	err error
}

func (f *fakeSTS) GetCallerIdentity(
	context.Context,
	*sts.GetCallerIdentityInput,
	...func(*sts.Options),
) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &sts.GetCallerIdentityOutput{
		Account: awssdk.String("123456789012"),
		Arn:     awssdk.String("arn:aws:iam::123456789012:user/ops"),
	}, nil
}

type fakeEC2 struct{}

func (fakeEC2) DescribeAvailabilityZones(
	context.Context,
	*ec2.DescribeAvailabilityZonesInput,
	...func(*ec2.Options),
) (*ec2.DescribeAvailabilityZonesOutput, error) {
	zones := make([]ec2types.AvailabilityZone, 0, 3)
	for _, name := range []string{"us-east-1c", "us-east-1a", "us-east-1b"} {
		zones = append(zones, ec2types.AvailabilityZone{
			ZoneName: awssdk.String(name),
			State:    ec2types.AvailabilityZoneStateAvailable,
		})
	}

	return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: zones}, nil
}

type recordingTerraform struct {
	dir   string
	calls []string
}

func (r *recordingTerraform) Init(context.Context) error {
	r.calls = append(r.calls, "init")

	return nil
}

func (r *recordingTerraform) Plan(context.Context) error {
	r.calls = append(r.calls, "plan")

	return nil
}

func (r *recordingTerraform) Apply(_ context.Context, autoApprove bool) error {
	r.calls = append(r.calls, "apply"+approval(autoApprove))

	return nil
}

func (r *recordingTerraform) Destroy(_ context.Context, autoApprove bool) error {
	r.calls = append(r.calls, "destroy"+approval(autoApprove))

	return nil
}

func approval(autoApprove bool) string {
	if autoApprove {
		return " -auto-approve"
	}

	return ""
}

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())

	return cmd, &out
}

func envIn(t *testing.T) *v1alpha1.Environment {
	t.Helper()

	env := v1alpha1.NewEnvironment()
	env.Spec.Infra.OutputDir = filepath.Join(t.TempDir(), "infra")

	return env
}

func depsWith(stsAPI aws.STSAPI, tf *recordingTerraform, lookErr error) infra.Deps {
	return infra.Deps{
		AWS: func(_ context.Context, region string) (*aws.Clients, error) {
			return &aws.Clients{Region: region, STS: stsAPI, EC2: fakeEC2{}}, nil
		},
		LookPath: func(file string) (string, error) {
			if lookErr != nil {
				return "", lookErr
			}

			return "/usr/local/bin/" + file, nil
		},
		Terraform: func(_ context.Context, dir string, _ io.Reader, _, _ io.Writer) (infrasvc.Terraform, error) {
			tf.dir = dir

			return tf, nil
		},
	}
}

func TestNewInfraCmd(t *testing.T) {
	t.Parallel()

	cmd := infra.NewInfraCmd(di.New())

	for _, name := range []string{"render", "plan", "apply", "destroy"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.Flags().Lookup("region"))

		hasApproval := sub.Flags().Lookup(infra.AutoApproveFlagName) != nil
		assert.Equal(t, name == "apply" || name == "destroy", hasApproval, name)
	}
}

func TestHandleRenderRunE(t *testing.T) {
	t.Parallel()

	env := envIn(t)
	cmd, out := newCmd()

	err := infra.HandleRenderRunE(cmd, env, depsWith(&fakeSTS{}, &recordingTerraform{}, nil))
	require.NoError(t, err)

	for _, file := range []string{infrasvc.NetworkFile, infrasvc.ClusterFile} {
		_, statErr := os.Stat(filepath.Join(env.Spec.Infra.OutputDir, file))
		require.NoError(t, statErr)
	}

	assert.Contains(t, out.String(), "[us-east-1a us-east-1b us-east-1c]")
}

func TestHandleRenderRunEConfiguredZonesSkipAWS(t *testing.T) {
	t.Parallel()

	env := envIn(t)
	env.Spec.Infra.Network.AvailabilityZones = []string{"eu-west-1a", "eu-west-1b"}
	cmd, _ := newCmd()

	err := infra.HandleRenderRunE(cmd, env, infra.Deps{})
	require.NoError(t, err)
}

func TestHandleTerraformRunE(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		op          infrasvc.Operation
		autoApprove bool
		wantCalls   []string
	}{
		{name: "plan", op: infrasvc.OperationPlan, wantCalls: []string{"init", "plan"}},
		{name: "apply", op: infrasvc.OperationApply, autoApprove: true, wantCalls: []string{"init", "apply -auto-approve"}},
		{name: "destroy", op: infrasvc.OperationDestroy, wantCalls: []string{"init", "destroy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := envIn(t)
			tf := &recordingTerraform{}
			cmd, out := newCmd()

			err := infra.HandleTerraformRunE(cmd, env, depsWith(&fakeSTS{}, tf, nil), tt.op, tt.autoApprove)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, tf.calls)
			assert.Equal(t, env.Spec.Infra.OutputDir, tf.dir)
			assert.Contains(t, out.String(), "arn:aws:iam::123456789012:user/ops")
		})
	}
}

func TestHandleTerraformRunEPreflight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sts     aws.STSAPI
		lookErr error
		wantErr error
	}{
		{name: "terraform missing", sts: &fakeSTS{}, lookErr: os.ErrNotExist, wantErr: os.ErrNotExist},
		{name: "no credentials", sts: &fakeSTS{err: errNoCredentials}, wantErr: aws.ErrCallerIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tf := &recordingTerraform{}
			cmd, _ := newCmd()

			err := infra.HandleTerraformRunE(cmd, envIn(t), depsWith(tt.sts, tf, tt.lookErr), infrasvc.OperationPlan, false)
			require.ErrorIs(t, err, preflight.ErrPreflightFailed)
			require.ErrorIs(t, err, tt.wantErr)
			assert.NotEmpty(t, preflight.HintOf(err))
			assert.Empty(t, tf.calls)
		})
	}
}
