package image

import (
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
)

// dockerHub is how containerd names Docker Hub images.
const dockerHub = "docker.io"

// NormalizeReference expands a short image reference into the fully qualified name that
// containerd stores, e.g. coderev-api:latest becomes docker.io/library/coderev-api:latest.
func NormalizeReference(ref string) (string, error) {
	parsed, err := name.ParseReference(ref, name.WeakValidation)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidReference, ref, err)
	}

	repo := parsed.Context()

	registry := repo.RegistryStr()
	if registry == name.DefaultRegistry {
		registry = dockerHub
	}

	base := registry + "/" + repo.RepositoryStr()

	switch typed := parsed.(type) {
	case name.Digest:
		return base + "@" + typed.DigestStr(), nil
	case name.Tag:
		return base + ":" + typed.TagStr(), nil
	default:
		return base + ":" + parsed.Identifier(), nil
	}
}
