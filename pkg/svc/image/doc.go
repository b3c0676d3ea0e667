// Package image builds the CodeRev images with the Docker engine and side-loads them
// into the containerd runtime of every kind node.
//
// Loading never goes through a registry: the images are saved to one archive, copied
// into each node and imported with ctr under the k8s.io namespace, so kubelet finds
// them with imagePullPolicy IfNotPresent.
package image

import "errors"

// Sentinel errors for the image package.
var (
	// ErrNoImages is returned when nothing is configured to build or load.
	ErrNoImages = errors.New("no images configured")
	// ErrInvalidReference is returned when an image reference cannot be parsed.
	ErrInvalidReference = errors.New("invalid image reference")
	// ErrDockerfileNotFound is returned when a Dockerfile is missing from the build context.
	ErrDockerfileNotFound = errors.New("dockerfile not found in build context")
	// ErrBuildFailed is returned when the engine reports a build error.
	ErrBuildFailed = errors.New("image build failed")
	// ErrNoNodes is returned when the kind cluster has no node containers.
	ErrNoNodes = errors.New("no kind nodes found for cluster")
	// ErrImageNotImported is returned when an image is absent from a node after import.
	ErrImageNotImported = errors.New("image not present in node after import")
)
