package netretry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/coderev/coderev-infra/pkg/client/netretry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errGeneric     = errors.New("something went wrong")
	errPort5000    = errors.New("connect to :5000")
	errUpstream502 = errors.New("upstream returned 502")
	errConnReset   = errors.New("read tcp 10.1.0.115:37414->98.84.224.111:443: read: connection reset by peer")
	errTLSTimeout  = errors.New("net/http: TLS handshake timeout")
	errNoSuchHost  = errors.New("dial tcp: lookup raw.githubusercontent.com: no such host")
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "generic", err: errGeneric, want: false},
		{name: "port 5000", err: errPort5000, want: false},
		{name: "cancelled", err: context.Canceled, want: false},
		{name: "502 text", err: errUpstream502, want: true},
		{name: "connection reset", err: errConnReset, want: true},
		{name: "tls timeout", err: errTLSTimeout, want: true},
		{name: "dns", err: errNoSuchHost, want: true},
		{name: "status 404", err: &netretry.StatusError{URL: "u", StatusCode: http.StatusNotFound}, want: false},
		{name: "status 429", err: &netretry.StatusError{URL: "u", StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "status 503", err: &netretry.StatusError{URL: "u", StatusCode: http.StatusServiceUnavailable}, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, netretry.IsRetryable(tc.err))
		})
	}
}

func TestExponentialDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, netretry.ExponentialDelay(1, time.Second, 10*time.Second))
	assert.Equal(t, 4*time.Second, netretry.ExponentialDelay(3, time.Second, 10*time.Second))
	assert.Equal(t, 10*time.Second, netretry.ExponentialDelay(6, time.Second, 10*time.Second))
}

func TestDo(t *testing.T) {
	t.Parallel()

	policy := netretry.Policy{Attempts: 3, BaseWait: time.Millisecond, MaxWait: time.Millisecond}

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		retries := 0

		err := netretry.Do(context.Background(), policy, func(context.Context) error {
			calls++
			if calls < 3 {
				return errConnReset
			}

			return nil
		}, func(int, error) { retries++ })

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0

		err := netretry.Do(context.Background(), policy, func(context.Context) error {
			calls++

			return errGeneric
		}, nil)

		require.ErrorIs(t, err, errGeneric)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0

		err := netretry.Do(context.Background(), policy, func(context.Context) error {
			calls++

			return errUpstream502
		}, nil)

		require.ErrorIs(t, err, errUpstream502)
		assert.Equal(t, 3, calls)
	})
}
