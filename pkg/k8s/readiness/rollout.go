package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/kubectl/pkg/polymorphichelpers"
)

// WaitForRollout polls the named deployment with the same status logic as
// `kubectl rollout status` until it has fully rolled out. A deployment that exceeded its
// progress deadline fails immediately with ErrRolloutFailed. The last observed status is
// included in the timeout error.
func WaitForRollout(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
	deadline time.Duration,
) error {
	viewer := &polymorphichelpers.DeploymentStatusViewer{}
	status := "deployment not found"

	err := PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return false, nil
		}

		if err != nil {
			return false, nil //nolint:nilerr // transient, keep polling
		}

		content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(deployment)
		if err != nil {
			return false, fmt.Errorf("convert deployment %s: %w", name, err)
		}

		message, done, err := viewer.Status(&unstructured.Unstructured{Object: content}, 0)
		if err != nil {
			return false, fmt.Errorf("%w: %w", ErrRolloutFailed, err)
		}

		status = strings.TrimSpace(message)

		return done, nil
	})
	if err != nil {
		return fmt.Errorf("deployment %s/%s: %w (last status: %s)", namespace, name, err, status)
	}

	return nil
}
