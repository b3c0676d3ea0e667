// Package deploy renders a kustomize overlay, applies it, and waits for the CodeRev
// deployments to roll out.
package deploy

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/client/kubeconform"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/coderev/coderev-infra/pkg/k8s/readiness"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes"
)

// Renderer builds an overlay into multi-document YAML.
type Renderer interface {
	Build(ctx context.Context, path string) ([]byte, error)
}

// Validator checks rendered manifests against Kubernetes schemas.
type Validator interface {
	ValidateManifests(
		name string,
		manifests []byte,
		opts kubeconform.ValidationOptions,
	) (kubeconform.Summary, error)
}

// Applier applies decoded objects to the cluster.
type Applier interface {
	Apply(
		ctx context.Context,
		objects []*unstructured.Unstructured,
		defaultNamespace string,
	) ([]k8s.ApplyResult, error)
}

// Deployer runs one deploy.
type Deployer struct {
	renderer  Renderer
	validator Validator
	applier   Applier
	clientset kubernetes.Interface
	out       io.Writer
	timer     timer.Timer
}

// NewDeployer returns a Deployer. validator and tmr may be nil.
func NewDeployer(
	renderer Renderer,
	validator Validator,
	applier Applier,
	clientset kubernetes.Interface,
	out io.Writer,
	tmr timer.Timer,
) *Deployer {
	return &Deployer{
		renderer:  renderer,
		validator: validator,
		applier:   applier,
		clientset: clientset,
		out:       out,
		timer:     tmr,
	}
}

// Deploy renders the overlay, validates it when asked, applies it into namespace, and
// waits for each rollout in order. The first rollout failure aborts.
func (d *Deployer) Deploy(ctx context.Context, spec v1alpha1.DeploySpec, namespace string) error {
	dir := spec.OverlayDir(spec.Overlay)

	manifests, err := d.renderer.Build(ctx, dir)
	if err != nil {
		return err
	}

	objects, err := k8s.DecodeManifests(manifests)
	if err != nil {
		return fmt.Errorf("failed to decode rendered overlay: %w", err)
	}

	notify.Successf(d.out, "rendered %d objects from %s", len(objects), dir)

	if spec.Validate && d.validator != nil {
		summary, err := d.validator.ValidateManifests(dir, manifests, kubeconform.ValidationOptions{
			IgnoreMissingSchemas: true,
		})
		if err != nil {
			return fmt.Errorf("rendered overlay failed validation: %w", err)
		}

		notify.Successf(d.out, "validated %d objects (%d skipped)", summary.Valid, summary.Skipped)
	}

	results, err := d.applier.Apply(ctx, objects, namespace)
	if err != nil {
		return fmt.Errorf("failed to apply overlay: %w", err)
	}

	for _, result := range results {
		notify.Activityf(d.out, "%s %s", result.Ref, result.Action)
	}

	for _, rollout := range spec.Rollouts {
		notify.Activityf(d.out, "waiting for deployment/%s (timeout %s)", rollout.Name, rollout.Timeout.Duration)

		err = readiness.WaitForRollout(ctx, d.clientset, namespace, rollout.Name, rollout.Timeout.Duration)
		if err != nil {
			return fmt.Errorf("deployment/%s did not roll out: %w", rollout.Name, err)
		}

		notify.Successf(d.out, "deployment/%s rolled out", rollout.Name)
	}

	if d.timer != nil {
		notify.SuccessWithTimerf(d.out, d.timer, "overlay %s deployed", spec.Overlay)
	}

	return nil
}

// AccessURLs lists the endpoints exposed through the ingress.
func AccessURLs(baseURL string) []string {
	base := strings.TrimRight(baseURL, "/")

	return lo.Map([]string{"", "/health", "/docs", "/webhooks/github"}, func(path string, _ int) string {
		return base + path
	})
}
