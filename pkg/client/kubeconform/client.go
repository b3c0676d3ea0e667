// Package kubeconform validates rendered manifests against Kubernetes JSON schemas.
package kubeconform

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yannh/kubeconform/pkg/validator"
)

// ErrInvalidManifests is returned when at least one resource fails validation.
var ErrInvalidManifests = errors.New("manifests failed schema validation")

// ValidationOptions configures validation behavior.
type ValidationOptions struct {
	// SkipKinds are never validated, e.g. CRD-backed kinds without published schemas.
	SkipKinds []string
	// Strict rejects properties absent from the schema.
	Strict bool
	// IgnoreMissingSchemas treats kinds without a schema as skipped.
	IgnoreMissingSchemas bool
	// SchemaLocations overrides the default schema registry.
	SchemaLocations []string
	// KubernetesVersion selects the schema version, "master" when empty.
	KubernetesVersion string
}

// Summary counts validation outcomes.
type Summary struct {
	Valid   int
	Skipped int
	Invalid []string
}

// Client validates manifest streams.
type Client struct{}

// NewClient returns a Client.
func NewClient() *Client {
	return &Client{}
}

// ValidateManifests validates every document of a multi-document stream. All failures are
// collected and returned together, wrapped in ErrInvalidManifests.
func (c *Client) ValidateManifests(name string, manifests []byte, opts ValidationOptions) (Summary, error) {
	skip := make(map[string]struct{}, len(opts.SkipKinds))
	for _, kind := range opts.SkipKinds {
		skip[kind] = struct{}{}
	}

	schemaValidator, err := validator.New(opts.SchemaLocations, validator.Opts{
		SkipKinds:            skip,
		Strict:               opts.Strict,
		IgnoreMissingSchemas: opts.IgnoreMissingSchemas,
		KubernetesVersion:    opts.KubernetesVersion,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("create validator: %w", err)
	}

	var summary Summary

	results := schemaValidator.Validate(name, io.NopCloser(bytes.NewReader(manifests)))
	for _, result := range results {
		switch result.Status {
		case validator.Valid:
			summary.Valid++
		case validator.Skipped:
			summary.Skipped++
		case validator.Empty:
		case validator.Invalid, validator.Error:
			summary.Invalid = append(summary.Invalid, describe(result))
		}
	}

	if len(summary.Invalid) > 0 {
		return summary, fmt.Errorf("%w:\n%s", ErrInvalidManifests, strings.Join(summary.Invalid, "\n"))
	}

	return summary, nil
}

func describe(result validator.Result) string {
	ref := "document"

	if sig, err := result.Resource.Signature(); err == nil && sig.Kind != "" {
		ref = sig.Kind + "/" + sig.Name
	}

	if len(result.ValidationErrors) == 0 {
		return fmt.Sprintf("%s: %v", ref, result.Err)
	}

	details := make([]string, 0, len(result.ValidationErrors))
	for _, validationErr := range result.ValidationErrors {
		details = append(details, validationErr.Path+": "+validationErr.Msg)
	}

	return ref + ": " + strings.Join(details, "; ")
}
