// Package ingress installs the ingress controller into the local cluster.
package ingress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/client/netretry"
	"github.com/coderev/coderev-infra/pkg/k8s"
	"github.com/coderev/coderev-infra/pkg/k8s/readiness"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes"
)

const (
	maxManifestBytes = 16 << 20
	requestTimeout   = 30 * time.Second
)

// Applier applies decoded objects to the cluster.
type Applier interface {
	Apply(
		ctx context.Context,
		objects []*unstructured.Unstructured,
		defaultNamespace string,
	) ([]k8s.ApplyResult, error)
}

// Installer downloads, applies, and waits for the ingress controller.
type Installer struct {
	httpClient *http.Client
	applier    Applier
	clientset  kubernetes.Interface
	policy     netretry.Policy
	out        io.Writer
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient replaces the client used to download the manifest.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Installer) { i.httpClient = client }
}

// WithRetryPolicy replaces the download retry policy.
func WithRetryPolicy(policy netretry.Policy) Option {
	return func(i *Installer) { i.policy = policy }
}

// NewInstaller returns an Installer.
func NewInstaller(
	applier Applier,
	clientset kubernetes.Interface,
	out io.Writer,
	opts ...Option,
) *Installer {
	installer := &Installer{
		httpClient: &http.Client{Timeout: requestTimeout},
		applier:    applier,
		clientset:  clientset,
		policy:     netretry.DefaultPolicy(),
		out:        out,
	}

	for _, opt := range opts {
		opt(installer)
	}

	return installer
}

// Install applies the manifest at spec.ManifestURL and waits until the controller pods
// selected by spec.Selector in spec.Namespace are Ready.
func (i *Installer) Install(ctx context.Context, spec v1alpha1.IngressSpec) error {
	notify.Activityf(i.out, "downloading %s", spec.ManifestURL)

	data, err := i.Fetch(ctx, spec.ManifestURL)
	if err != nil {
		return err
	}

	objects, err := k8s.DecodeManifests(data)
	if err != nil {
		return fmt.Errorf("failed to decode ingress manifest: %w", err)
	}

	notify.Activityf(i.out, "applying %d objects", len(objects))

	results, err := i.applier.Apply(ctx, objects, spec.Namespace)
	if err != nil {
		return fmt.Errorf("failed to apply ingress manifest: %w", err)
	}

	counts := lo.CountValuesBy(results, func(result k8s.ApplyResult) k8s.ApplyAction { return result.Action })
	notify.Successf(i.out, "%d created, %d configured, %d unchanged",
		counts[k8s.ApplyCreated], counts[k8s.ApplyUpdated], counts[k8s.ApplySkipped])

	notify.Activityf(i.out, "waiting for %s pods in %s (timeout %s)",
		spec.Selector, spec.Namespace, spec.Timeout.Duration)

	err = readiness.WaitForPodsReady(ctx, i.clientset, spec.Namespace, spec.Selector, spec.Timeout.Duration)
	if err != nil {
		return fmt.Errorf("ingress controller not ready: %w", err)
	}

	return nil
}

// Fetch downloads url, retrying transient failures with exponential backoff.
func (i *Installer) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := netretry.Do(ctx, i.policy, func(ctx context.Context) error {
		var err error

		body, err = i.get(ctx, url)

		return err
	}, func(attempt int, err error) {
		notify.Warningf(i.out, "download attempt %d failed, retrying: %v", attempt, err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}

	return body, nil
}

func (i *Installer) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck // classified by netretry
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &netretry.StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return data, nil
}
