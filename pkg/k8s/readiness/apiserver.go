package readiness

import (
	"context"
	"time"

	"k8s.io/client-go/kubernetes"
)

// WaitForAPIServerReady polls the server version endpoint until it answers.
func WaitForAPIServerReady(ctx context.Context, clientset kubernetes.Interface, deadline time.Duration) error {
	return PollForReadiness(ctx, deadline, func(_ context.Context) (bool, error) {
		_, err := clientset.Discovery().ServerVersion()

		return err == nil, nil
	})
}
