package k8s

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
	"k8s.io/utils/ptr"
)

// FieldManager owns the fields set by server-side apply.
const FieldManager = "coderev"

// ApplyAction is what Apply did with one object.
type ApplyAction string

const (
	// ApplyCreated means the object did not exist and was created.
	ApplyCreated ApplyAction = "created"
	// ApplyUpdated means the object existed and the manifest was applied over it.
	ApplyUpdated ApplyAction = "configured"
	// ApplySkipped means the object exists and its kind cannot be updated in place.
	ApplySkipped ApplyAction = "unchanged"
)

// ApplyResult records one applied object.
type ApplyResult struct {
	Ref    string
	Action ApplyAction
}

// Applier server-side applies unstructured objects through the dynamic client. Fields other
// managers own, such as an injected webhook caBundle, are left in place.
type Applier struct {
	client dynamic.Interface
	mapper meta.RESTMapper
}

// NewApplier returns an Applier using client and mapper.
func NewApplier(client dynamic.Interface, mapper meta.RESTMapper) *Applier {
	return &Applier{client: client, mapper: mapper}
}

// DecodeManifests splits a multi-document YAML or JSON stream into objects. Empty documents
// are dropped and List kinds are flattened into their items.
func DecodeManifests(data []byte) ([]*unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var objects []*unstructured.Unstructured

	for {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}

		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}

		jsonDoc, err := utilyaml.ToJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("convert manifest to JSON: %w", err)
		}

		if bytes.Equal(bytes.TrimSpace(jsonDoc), []byte("null")) {
			continue
		}

		decoded, err := decodeObject(jsonDoc)
		if err != nil {
			return nil, err
		}

		objects = append(objects, decoded...)
	}

	if len(objects) == 0 {
		return nil, ErrNoObjects
	}

	return objects, nil
}

func decodeObject(jsonDoc []byte) ([]*unstructured.Unstructured, error) {
	head := &unstructured.Unstructured{}

	err := head.UnmarshalJSON(jsonDoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}

	if !head.IsList() {
		return []*unstructured.Unstructured{head}, nil
	}

	list := &unstructured.UnstructuredList{}

	err = list.UnmarshalJSON(jsonDoc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", head.GetKind(), err)
	}

	items := make([]*unstructured.Unstructured, 0, len(list.Items))
	for i := range list.Items {
		items = append(items, &list.Items[i])
	}

	return items, nil
}

// Ref renders kind/name or kind/namespace/name for messages.
func Ref(obj *unstructured.Unstructured) string {
	if obj.GetNamespace() == "" {
		return obj.GetKind() + "/" + obj.GetName()
	}

	return obj.GetKind() + "/" + obj.GetNamespace() + "/" + obj.GetName()
}

// Apply creates or updates every object, namespaces first, then CRDs, then the rest in input
// order. Namespaced objects without a namespace are placed in defaultNamespace.
func (a *Applier) Apply(
	ctx context.Context,
	objects []*unstructured.Unstructured,
	defaultNamespace string,
) ([]ApplyResult, error) {
	ordered := slices.Clone(objects)
	slices.SortStableFunc(ordered, func(left, right *unstructured.Unstructured) int {
		return applyPriority(left) - applyPriority(right)
	})

	results := make([]ApplyResult, 0, len(ordered))

	for _, obj := range ordered {
		action, err := a.applyOne(ctx, obj, defaultNamespace)
		if err != nil {
			return results, fmt.Errorf("apply %s: %w", Ref(obj), err)
		}

		results = append(results, ApplyResult{Ref: Ref(obj), Action: action})
	}

	return results, nil
}

func applyPriority(obj *unstructured.Unstructured) int {
	switch obj.GroupVersionKind().GroupKind() {
	case schema.GroupKind{Kind: "Namespace"}:
		return 0
	case schema.GroupKind{Group: "apiextensions.k8s.io", Kind: "CustomResourceDefinition"}:
		return 1
	default:
		return 2
	}
}

// immutable kinds are created once and never replaced.
func immutable(gk schema.GroupKind) bool {
	return gk == schema.GroupKind{Group: "batch", Kind: "Job"} || gk == schema.GroupKind{Kind: "Pod"}
}

func (a *Applier) applyOne(
	ctx context.Context,
	obj *unstructured.Unstructured,
	defaultNamespace string,
) (ApplyAction, error) {
	mapping, err := a.mapping(obj.GroupVersionKind())
	if err != nil {
		return "", err
	}

	var resource dynamic.ResourceInterface = a.client.Resource(mapping.Resource)

	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		if obj.GetNamespace() == "" {
			obj.SetNamespace(defaultNamespace)
		}

		resource = a.client.Resource(mapping.Resource).Namespace(obj.GetNamespace())
	}

	action := ApplyUpdated

	_, err = resource.Get(ctx, obj.GetName(), metav1.GetOptions{})

	switch {
	case apierrors.IsNotFound(err):
		action = ApplyCreated
	case err != nil:
		return "", fmt.Errorf("get: %w", err)
	case immutable(obj.GroupVersionKind().GroupKind()):
		return ApplySkipped, nil
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}

	_, err = resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, metav1.PatchOptions{
		FieldManager: FieldManager,
		Force:        ptr.To(true),
	})
	if err != nil {
		return "", fmt.Errorf("server-side apply: %w", err)
	}

	return action, nil
}

func (a *Applier) mapping(gvk schema.GroupVersionKind) (*meta.RESTMapping, error) {
	mapping, err := a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if meta.IsNoMatchError(err) {
		if resettable, ok := a.mapper.(meta.ResettableRESTMapper); ok {
			resettable.Reset()

			mapping, err = a.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("resolve resource for %s: %w", gvk, err)
	}

	return mapping, nil
}
