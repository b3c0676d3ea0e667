package deploy_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/cmd/deploy"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/cli/testutil"
	"github.com/coderev/coderev-infra/pkg/client/kustomize"
	"github.com/coderev/coderev-infra/pkg/di"
	deploysvc "github.com/coderev/coderev-infra/pkg/svc/deploy"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

const kustomization = `resources:
- settings.yaml
secretGenerator:
- name: coderev-secrets
  envs:
  - secrets.env
`

const settings = `apiVersion: v1
kind: ConfigMap
metadata:
  name: coderev-settings
data:
  LOG_LEVEL: info
`

func newCmd() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer

	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())

	return cmd, &out
}

// overlayEnv writes overlays/<name> and returns an Environment pointing at it.
func overlayEnv(t *testing.T, name string, withSecrets bool) *v1alpha1.Environment {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))

	files := map[string]string{"kustomization.yaml": kustomization, "settings.yaml": settings}
	if withSecrets {
		files["secrets.env"] = "GITHUB_TOKEN=ghp_test\n"
	}

	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o600))
	}

	env := v1alpha1.NewEnvironment()
	env.Spec.Deploy.OverlaysDir = root
	env.Spec.Deploy.Rollouts = nil

	return env
}

func depsWith(kube *testutil.FakeKube, clusters ...string) deploy.Deps {
	return deploy.Deps{
		Deps: lifecycle.Deps{
			Factory:     &testutil.FakeFactory{Provisioner: &testutil.FakeProvisioner{Clusters: clusters}},
			KubeClients: kube.Factory(),
		},
		Renderer: kustomize.NewClient(),
	}
}

func TestNewDeployCmd(t *testing.T) {
	t.Parallel()

	cmd := deploy.NewDeployCmd(di.New())

	assert.Equal(t, "deploy", cmd.Name())
	require.Error(t, cmd.Args(cmd, []string{"local", "extra"}))
	require.NoError(t, cmd.Args(cmd, []string{"local"}))
	assert.NotNil(t, cmd.Flags().Lookup("validate"))
}

func TestHandleDeployRunE(t *testing.T) {
	t.Parallel()

	kube := testutil.NewFakeKube()
	env := overlayEnv(t, "staging", true)
	cmd, out := newCmd()

	err := deploy.HandleDeployRunE(cmd, env, depsWith(kube, "coderev"), []string{"staging"})
	require.NoError(t, err)

	cm, err := kube.Dynamic.Resource(configMapGVR()).Namespace("coderev").
		Get(context.Background(), "coderev-settings", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "coderev-settings", cm.GetName())

	assert.Contains(t, out.String(), "Deploy staging...")
	assert.Contains(t, out.String(), "http://localhost/webhooks/github")
}

func TestHandleDeployRunEPreconditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		clusters []string
		secrets  bool
		args     []string
		wantErr  error
		wantOut  string
	}{
		{name: "cluster missing", secrets: true, wantErr: lifecycle.ErrClusterMissing},
		{
			name:     "unknown overlay",
			clusters: []string{"coderev"},
			secrets:  true,
			args:     []string{"production"},
			wantErr:  deploysvc.ErrOverlayNotFound,
		},
		{
			name:     "secrets file missing",
			clusters: []string{"coderev"},
			wantErr:  deploysvc.ErrGeneratorInputMissing,
			wantOut:  "coderev secrets generate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := overlayEnv(t, "local", tt.secrets)
			cmd, out := newCmd()

			err := deploy.HandleDeployRunE(cmd, env, depsWith(testutil.NewFakeKube(), tt.clusters...), tt.args)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, out.String(), tt.wantOut)
		})
	}
}

func configMapGVR() schema.GroupVersionResource {
	return schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
}
