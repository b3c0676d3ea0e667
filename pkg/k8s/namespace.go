package k8s

import (
	"context"
	"fmt"
	"time"

	"github.com/coderev/coderev-infra/pkg/k8s/readiness"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// DeleteNamespace deletes name with foreground propagation and waits until the API no longer
// returns it. It reports false without error when the namespace did not exist.
func DeleteNamespace(
	ctx context.Context,
	client kubernetes.Interface,
	name string,
	timeout time.Duration,
) (bool, error) {
	propagation := metav1.DeletePropagationForeground

	err := client.CoreV1().Namespaces().Delete(ctx, name, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if apierrors.IsNotFound(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("delete namespace %s: %w", name, err)
	}

	err = readiness.PollForReadiness(ctx, timeout, func(ctx context.Context) (bool, error) {
		_, getErr := client.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(getErr) {
			return true, nil
		}

		return false, nil
	})
	if err != nil {
		return true, fmt.Errorf("wait for namespace %s to be removed: %w", name, err)
	}

	return true, nil
}
