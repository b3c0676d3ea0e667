package k8s_test

import (
	"context"
	"testing"
	"time"

	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestDeleteNamespace_RemovesExisting(t *testing.T) {
	t.Parallel()

	client := fake.NewClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "coderev"}})

	deleted, err := k8s.DeleteNamespace(context.Background(), client, "coderev", time.Second)

	require.NoError(t, err)
	assert.True(t, deleted)

	namespaces, err := client.CoreV1().Namespaces().List(context.Background(), metav1.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, namespaces.Items)
}

func TestDeleteNamespace_AbsentIsNotAnError(t *testing.T) {
	t.Parallel()

	deleted, err := k8s.DeleteNamespace(context.Background(), fake.NewClientset(), "coderev", time.Second)

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestKindContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "kind-coderev", k8s.KindContext("coderev"))
}

func TestBuildRESTConfig_SelectsContext(t *testing.T) {
	t.Parallel()

	path := writeKubeconfig(t)

	config, err := k8s.BuildRESTConfig(path, "kind-coderev")

	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", config.Host)

	_, err = k8s.BuildRESTConfig(path, "kind-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load kubeconfig")
}

func TestNewClients_BuildsAllClients(t *testing.T) {
	t.Parallel()

	clients, err := k8s.NewClients(writeKubeconfig(t), "kind-coderev")

	require.NoError(t, err)
	assert.NotNil(t, clients.Typed)
	assert.NotNil(t, clients.Dynamic)
	assert.NotNil(t, clients.Mapper)
}
