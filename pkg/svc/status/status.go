// Package status reports the state of the local CodeRev deployment.
package status

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// DeploymentStatus is the replica state of one deployment.
type DeploymentStatus struct {
	Name    string
	Found   bool
	Ready   int32
	Desired int32
}

// Healthy reports whether every desired replica is ready.
func (s DeploymentStatus) Healthy() bool {
	return s.Found && s.Desired > 0 && s.Ready >= s.Desired
}

// ProbeResult is the outcome of one HTTP probe.
type ProbeResult struct {
	URL        string
	StatusCode int
	Err        error
}

// OK reports a 2xx answer.
func (p ProbeResult) OK() bool {
	return p.Err == nil && p.StatusCode >= http.StatusOK && p.StatusCode < http.StatusMultipleChoices
}

// Deployments reads the replica counts of each rollout deployment in namespace.
func Deployments(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace string,
	rollouts []v1alpha1.Rollout,
) ([]DeploymentStatus, error) {
	statuses := make([]DeploymentStatus, 0, len(rollouts))

	for _, rollout := range rollouts {
		deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, rollout.Name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			statuses = append(statuses, DeploymentStatus{Name: rollout.Name})

			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to get deployment %s/%s: %w", namespace, rollout.Name, err)
		}

		desired := int32(1)
		if deployment.Spec.Replicas != nil {
			desired = *deployment.Spec.Replicas
		}

		statuses = append(statuses, DeploymentStatus{
			Name:    rollout.Name,
			Found:   true,
			Ready:   deployment.Status.ReadyReplicas,
			Desired: desired,
		})
	}

	return statuses, nil
}

// Probe issues GET requests against the API's health endpoints.
func Probe(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) []ProbeResult {
	base := strings.TrimRight(baseURL, "/")
	results := make([]ProbeResult, 0, 2)

	for _, path := range []string{"/health", "/ready"} {
		results = append(results, probeOne(ctx, client, base+path, timeout))
	}

	return results
}

func probeOne(ctx context.Context, client *http.Client, url string, timeout time.Duration) ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProbeResult{URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return ProbeResult{URL: url, Err: err}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return ProbeResult{URL: url, StatusCode: resp.StatusCode}
}

// Print writes the report; it returns false when anything is unhealthy.
func Print(out io.Writer, deployments []DeploymentStatus, probes []ProbeResult) bool {
	healthy := true

	for _, deployment := range deployments {
		switch {
		case !deployment.Found:
			healthy = false

			notify.Errorf(out, "deployment/%s not found", deployment.Name)
		case deployment.Healthy():
			notify.Successf(out, "deployment/%s %d/%d ready", deployment.Name, deployment.Ready, deployment.Desired)
		default:
			healthy = false

			notify.Warningf(out, "deployment/%s %d/%d ready", deployment.Name, deployment.Ready, deployment.Desired)
		}
	}

	for _, probe := range probes {
		switch {
		case probe.Err != nil:
			healthy = false

			notify.Errorf(out, "GET %s: %v", probe.URL, probe.Err)
		case probe.OK():
			notify.Successf(out, "GET %s: %d", probe.URL, probe.StatusCode)
		default:
			healthy = false

			notify.Warningf(out, "GET %s: %d", probe.URL, probe.StatusCode)
		}
	}

	return healthy
}
