// Package kustomize renders kustomize overlays in-process.
package kustomize

import (
	"context"
	"fmt"

	"sigs.k8s.io/kustomize/api/krusty"
	"sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/kustomize/kyaml/filesys"
)

// Client renders kustomizations from a file system.
type Client struct {
	fs filesys.FileSystem
}

// NewClient returns a client reading from disk.
func NewClient() *Client {
	return NewClientWithFS(filesys.MakeFsOnDisk())
}

// NewClientWithFS returns a client reading from fs.
func NewClientWithFS(fs filesys.FileSystem) *Client {
	return &Client{fs: fs}
}

// Build renders the kustomization in path to a multi-document YAML stream. Overlays may
// reference files outside their own directory.
func (c *Client) Build(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("kustomize build %s: %w", path, err)
	}

	opts := krusty.MakeDefaultOptions()
	opts.LoadRestrictions = types.LoadRestrictionsNone

	resources, err := krusty.MakeKustomizer(opts).Run(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("kustomize build %s: %w", path, err)
	}

	out, err := resources.AsYaml()
	if err != nil {
		return nil, fmt.Errorf("kustomize build %s: encode: %w", path, err)
	}

	return out, nil
}
