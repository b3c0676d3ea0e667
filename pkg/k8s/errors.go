package k8s

import "errors"

// ErrNoObjects is returned when a manifest decodes to no Kubernetes objects.
var ErrNoObjects = errors.New("manifest contains no objects")

// ErrInvalidObject is returned when a manifest document is not a Kubernetes object.
var ErrInvalidObject = errors.New("invalid manifest object")
