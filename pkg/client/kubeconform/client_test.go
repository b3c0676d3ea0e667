package kubeconform_test

import (
	"testing"

	"github.com/coderev/coderev-infra/pkg/client/kubeconform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateManifests_SkipsConfiguredKinds(t *testing.T) {
	t.Parallel()

	manifests := []byte(`apiVersion: example.com/v1
kind: Widget
metadata:
  name: a
---
apiVersion: example.com/v1
kind: Widget
metadata:
  name: b
`)

	summary, err := kubeconform.NewClient().ValidateManifests("overlay", manifests, kubeconform.ValidationOptions{
		SkipKinds: []string{"Widget"},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Skipped)
	assert.Empty(t, summary.Invalid)
}

func TestValidateManifests_ReportsUnparsableDocuments(t *testing.T) {
	t.Parallel()

	summary, err := kubeconform.NewClient().ValidateManifests("overlay", []byte("kind: [unclosed\n"), kubeconform.ValidationOptions{})

	require.ErrorIs(t, err, kubeconform.ErrInvalidManifests)
	assert.Len(t, summary.Invalid, 1)
}
