package testutil

import (
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	kubescheme "k8s.io/client-go/kubernetes/scheme"
	clienttesting "k8s.io/client-go/testing"
)

// Kinds known to the fake REST mapper.
var fakeKinds = []struct {
	gvk       schema.GroupVersionKind
	namespace bool
}{
	{gvk: schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}},
	{gvk: schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}, namespace: true},
	{gvk: schema.GroupVersionKind{Version: "v1", Kind: "Secret"}, namespace: true},
	{gvk: schema.GroupVersionKind{Version: "v1", Kind: "Service"}, namespace: true},
	{gvk: schema.GroupVersionKind{Group: "apps", Version: "v1", Kind: "Deployment"}, namespace: true},
	{gvk: schema.GroupVersionKind{Group: "batch", Version: "v1", Kind: "Job"}, namespace: true},
	{gvk: schema.GroupVersionKind{
		Group: "admissionregistration.k8s.io", Version: "v1", Kind: "ValidatingWebhookConfiguration",
	}},
}

// FakeKube holds the fake clients handed out by Factory. Typed and Dynamic share one
// object tracker.
type FakeKube struct {
	Typed   *fake.Clientset
	Dynamic *dynamicfake.FakeDynamicClient
	Mapper  meta.RESTMapper
}

// NewFakeKube seeds the shared tracker with objects.
func NewFakeKube(objects ...runtime.Object) *FakeKube {
	typed := fake.NewClientset(objects...)

	return &FakeKube{
		Typed:   typed,
		Dynamic: NewDynamicFor(typed),
		Mapper:  NewFakeMapper(),
	}
}

// NewFakeMapper maps the kinds the fakes know about.
func NewFakeMapper() meta.RESTMapper {
	mapper := meta.NewDefaultRESTMapper(nil)

	for _, kind := range fakeKinds {
		scope := meta.RESTScopeRoot
		if kind.namespace {
			scope = meta.RESTScopeNamespace
		}

		mapper.Add(kind.gvk, scope)
	}

	return mapper
}

// NewDynamicFor returns a dynamic client reading and writing typed's tracker. The tracker
// records field managers, so server-side apply merges like an API server would.
func NewDynamicFor(typed *fake.Clientset) *dynamicfake.FakeDynamicClient {
	scheme := runtime.NewScheme()
	utilruntime.Must(kubescheme.AddToScheme(scheme))

	client := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme, nil)
	client.PrependReactor("*", "*", clienttesting.ObjectReaction(typed.Tracker()))

	return client
}

// Factory returns a KubeClientsFactory that always yields the fake clients.
func (f *FakeKube) Factory() di.KubeClientsFactory {
	return func(string, string) (*k8s.Clients, error) {
		return &k8s.Clients{Typed: f.Typed, Dynamic: f.Dynamic, Mapper: f.Mapper}, nil
	}
}
