package k8s_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/coderev/coderev-infra/pkg/cli/testutil"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/dynamic"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	clienttesting "k8s.io/client-go/testing"
	"k8s.io/utils/ptr"
)

const manifest = `apiVersion: v1
kind: ConfigMap
metadata:
  name: settings
  namespace: ingress-nginx
data:
  mode: "1"
---
# comment only
---
apiVersion: v1
kind: Namespace
metadata:
  name: ingress-nginx
---
apiVersion: batch/v1
kind: Job
metadata:
  name: admission-create
spec:
  backoffLimit: 6
`

var (
	serviceGVR = schema.GroupVersionResource{Version: "v1", Resource: "services"}
	webhookGVR = schema.GroupVersionResource{
		Group: "admissionregistration.k8s.io", Version: "v1", Resource: "validatingwebhookconfigurations",
	}
)

func newTestApplier(objects ...runtime.Object) (*k8s.Applier, *fake.Clientset, dynamic.Interface) {
	typed := fake.NewClientset(objects...)
	client := testutil.NewDynamicFor(typed)

	return k8s.NewApplier(client, testutil.NewFakeMapper()), typed, client
}

func decode(t *testing.T, data string) []*unstructured.Unstructured {
	t.Helper()

	objects, err := k8s.DecodeManifests([]byte(data))
	require.NoError(t, err)

	return objects
}

func TestDecodeManifests_SkipsEmptyDocuments(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests([]byte(manifest))

	require.NoError(t, err)
	require.Len(t, objects, 3)
	assert.Equal(t, "ConfigMap/ingress-nginx/settings", k8s.Ref(objects[0]))
	assert.Equal(t, "Namespace/ingress-nginx", k8s.Ref(objects[1]))

	limit, found, err := unstructured.NestedInt64(objects[2].Object, "spec", "backoffLimit")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(6), limit)
}

func TestDecodeManifests_FlattensLists(t *testing.T) {
	t.Parallel()

	objects, err := k8s.DecodeManifests([]byte(`apiVersion: v1
kind: List
items:
- apiVersion: v1
  kind: ConfigMap
  metadata: {name: a}
- apiVersion: v1
  kind: ConfigMap
  metadata: {name: b}
`))

	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "b", objects[1].GetName())
}

func TestDecodeManifests_Errors(t *testing.T) {
	t.Parallel()

	_, err := k8s.DecodeManifests([]byte("---\n---\n"))
	require.ErrorIs(t, err, k8s.ErrNoObjects)

	_, err = k8s.DecodeManifests([]byte("metadata:\n  name: orphan\n"))
	require.ErrorIs(t, err, k8s.ErrInvalidObject)
}

func TestApplier_CreatesNamespaceFirst(t *testing.T) {
	t.Parallel()

	applier, typed, _ := newTestApplier()

	results, err := applier.Apply(context.Background(), decode(t, manifest), "default")

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, k8s.ApplyResult{Ref: "Namespace/ingress-nginx", Action: k8s.ApplyCreated}, results[0])
	assert.Equal(t, k8s.ApplyResult{Ref: "ConfigMap/ingress-nginx/settings", Action: k8s.ApplyCreated}, results[1])
	assert.Equal(t, k8s.ApplyResult{Ref: "Job/default/admission-create", Action: k8s.ApplyCreated}, results[2])

	job, err := typed.BatchV1().Jobs("default").Get(context.Background(), "admission-create", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, ptr.To[int32](6), job.Spec.BackoffLimit)
}

func TestApplier_UsesServerSideApply(t *testing.T) {
	t.Parallel()

	applier, _, client := newTestApplier()
	fakeClient, ok := client.(*dynamicfake.FakeDynamicClient)
	require.True(t, ok)

	_, err := applier.Apply(context.Background(), decode(t, manifest), "default")
	require.NoError(t, err)

	var patches []clienttesting.PatchAction

	for _, action := range fakeClient.Actions() {
		assert.NotContains(t, []string{"create", "update"}, action.GetVerb(), action.GetResource())

		if patch, isPatch := action.(clienttesting.PatchAction); isPatch {
			patches = append(patches, patch)
		}
	}

	require.Len(t, patches, 3)

	for _, patch := range patches {
		assert.Equal(t, types.ApplyPatchType, patch.GetPatchType())

		impl, isImpl := patch.(clienttesting.PatchActionImpl)
		require.True(t, isImpl)
		assert.Equal(t, k8s.FieldManager, impl.PatchOptions.FieldManager)
		assert.Equal(t, ptr.To(true), impl.PatchOptions.Force)
	}
}

func TestApplier_UpdatesExistingAndSkipsJobs(t *testing.T) {
	t.Parallel()

	existingConfig := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "settings", Namespace: "ingress-nginx"},
		Data:       map[string]string{"mode": "0"},
	}
	existingJob := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{Name: "admission-create", Namespace: "default"},
	}

	applier, typed, _ := newTestApplier(existingConfig, existingJob)

	results, err := applier.Apply(context.Background(), decode(t, manifest), "default")

	require.NoError(t, err)
	assert.Equal(t, k8s.ApplyUpdated, results[1].Action)
	assert.Equal(t, k8s.ApplySkipped, results[2].Action)

	updated, err := typed.CoreV1().ConfigMaps("ingress-nginx").Get(context.Background(), "settings", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1", updated.Data["mode"])

	job, err := typed.BatchV1().Jobs("default").Get(context.Background(), "admission-create", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, job.Spec.BackoffLimit)
}

func TestApplier_KeepsServerAllocatedServiceFields(t *testing.T) {
	t.Parallel()

	existing := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "api", Namespace: "coderev"},
		Spec:       corev1.ServiceSpec{ClusterIP: "10.96.0.10", ClusterIPs: []string{"10.96.0.10"}},
	}

	applier, _, client := newTestApplier(existing)

	_, err := applier.Apply(context.Background(), decode(t, `apiVersion: v1
kind: Service
metadata:
  name: api
spec:
  ports:
  - port: 8000
`), "coderev")
	require.NoError(t, err)

	updated, err := client.Resource(serviceGVR).Namespace("coderev").Get(context.Background(), "api", metav1.GetOptions{})
	require.NoError(t, err)

	clusterIP, _, _ := unstructured.NestedString(updated.Object, "spec", "clusterIP")
	assert.Equal(t, "10.96.0.10", clusterIP)

	ports, _, _ := unstructured.NestedSlice(updated.Object, "spec", "ports")
	assert.Len(t, ports, 1)
}

const webhookManifest = `apiVersion: admissionregistration.k8s.io/v1
kind: ValidatingWebhookConfiguration
metadata:
  name: ingress-nginx-admission
webhooks:
- name: validate.nginx.ingress.kubernetes.io
  admissionReviewVersions: ["v1"]
  sideEffects: None
  failurePolicy: %s
  clientConfig:
    service:
      name: ingress-nginx-controller-admission
      namespace: ingress-nginx
      path: /networking/v1/ingresses
`

func TestApplier_KeepsFieldsOwnedByOtherManagers(t *testing.T) {
	t.Parallel()

	applier, typed, client := newTestApplier()
	ctx := context.Background()

	results, err := applier.Apply(ctx, decode(t, fmt.Sprintf(webhookManifest, "Fail")), "")
	require.NoError(t, err)
	assert.Equal(t, k8s.ApplyCreated, results[0].Action)

	webhooks := typed.AdmissionregistrationV1().ValidatingWebhookConfigurations()

	live, err := webhooks.Get(ctx, "ingress-nginx-admission", metav1.GetOptions{})
	require.NoError(t, err)
	require.Len(t, live.Webhooks, 1)

	live.Webhooks[0].ClientConfig.CABundle = []byte("injected-ca")
	_, err = webhooks.Update(ctx, live, metav1.UpdateOptions{FieldManager: "kube-webhook-certgen"})
	require.NoError(t, err)

	results, err = applier.Apply(ctx, decode(t, fmt.Sprintf(webhookManifest, "Ignore")), "")
	require.NoError(t, err)
	assert.Equal(t, k8s.ApplyUpdated, results[0].Action)

	reapplied, err := client.Resource(webhookGVR).Get(ctx, "ingress-nginx-admission", metav1.GetOptions{})
	require.NoError(t, err)

	hooks, _, _ := unstructured.NestedSlice(reapplied.Object, "webhooks")
	require.Len(t, hooks, 1)

	hook, ok := hooks[0].(map[string]any)
	require.True(t, ok)

	caBundle, found, _ := unstructured.NestedString(hook, "clientConfig", "caBundle")
	assert.True(t, found, "caBundle was dropped by re-apply")
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("injected-ca")), caBundle)

	policy, _, _ := unstructured.NestedString(hook, "failurePolicy")
	assert.Equal(t, "Ignore", policy)
}

func TestApplier_UnknownKind(t *testing.T) {
	t.Parallel()

	applier, _, _ := newTestApplier()

	_, err := applier.Apply(context.Background(),
		decode(t, "apiVersion: example.com/v1\nkind: Widget\nmetadata:\n  name: w\n"), "default")

	require.Error(t, err)
	assert.True(t, meta.IsNoMatchError(err))
}
