package image_test

import (
	"testing"

	"github.com/coderev/coderev-infra/pkg/svc/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{name: "short name with tag", ref: "coderev-api:latest", want: "docker.io/library/coderev-api:latest"},
		{name: "implicit latest", ref: "coderev-worker", want: "docker.io/library/coderev-worker:latest"},
		{name: "docker hub user repo", ref: "acme/coderev:1.2", want: "docker.io/acme/coderev:1.2"},
		{name: "explicit docker.io", ref: "docker.io/library/redis:7", want: "docker.io/library/redis:7"},
		{name: "other registry", ref: "ghcr.io/acme/api:v1", want: "ghcr.io/acme/api:v1"},
		{
			name: "digest",
			ref:  "redis@sha256:" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
			want: "docker.io/library/redis@sha256:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		},
		{name: "invalid", ref: "UPPER CASE:tag", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := image.NormalizeReference(testCase.ref)
			if testCase.wantErr {
				require.ErrorIs(t, err, image.ErrInvalidReference)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}
