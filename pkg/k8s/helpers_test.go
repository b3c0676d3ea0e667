package k8s_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeKubeconfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kubeconfig")
	content := `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://127.0.0.1:6443
  name: kind-coderev
contexts:
- context:
    cluster: kind-coderev
    user: kind-coderev
  name: kind-coderev
current-context: kind-coderev
users:
- name: kind-coderev
  user:
    token: fake-token
`

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
