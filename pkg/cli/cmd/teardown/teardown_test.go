package teardown_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/teardown"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/cli/testutil"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())

	return cmd, &out
}

func TestNewTeardownCmd(t *testing.T) {
	t.Parallel()

	cmd := teardown.NewTeardownCmd(di.New())

	assert.NotNil(t, cmd.Flags().Lookup("delete-cluster"))
	assert.NotNil(t, cmd.Flags().Lookup("namespace"))
}

func TestHandleTeardownRunE(t *testing.T) {
	t.Parallel()

	namespace := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "coderev"}}

	tests := []struct {
		name          string
		clusters      []string
		objects       []runtime.Object
		deleteCluster bool
		wantOut       string
		wantDeleted   []string
	}{
		{
			name:     "deletes namespace",
			clusters: []string{"coderev"},
			objects:  []runtime.Object{namespace},
			wantOut:  "namespace coderev deleted",
		},
		{
			name:     "namespace already gone",
			clusters: []string{"coderev"},
			wantOut:  "namespace coderev not found",
		},
		{
			name:          "deletes cluster too",
			clusters:      []string{"coderev"},
			objects:       []runtime.Object{namespace},
			deleteCluster: true,
			wantOut:       "cluster coderev deleted",
			wantDeleted:   []string{"coderev"},
		},
		{
			name:          "cluster missing",
			deleteCluster: true,
			wantOut:       "nothing to tear down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kube := testutil.NewFakeKube(tt.objects...)
			provisioner := &testutil.FakeProvisioner{Clusters: tt.clusters}
			deps := lifecycle.Deps{
				Factory:     &testutil.FakeFactory{Provisioner: provisioner},
				KubeClients: kube.Factory(),
			}

			env := v1alpha1.NewEnvironment()
			env.Spec.Teardown.DeleteCluster = tt.deleteCluster

			cmd, out := newCmd()

			err := teardown.HandleTeardownRunE(cmd, env, deps)
			require.NoError(t, err)
			assert.Contains(t, out.String(), tt.wantOut)
			assert.Equal(t, tt.wantDeleted, provisioner.Deleted)
		})
	}
}
