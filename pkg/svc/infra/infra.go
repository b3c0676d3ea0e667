// Package infra renders the production templates to disk and drives terraform over them.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/client/aws"
	"github.com/coderev/coderev-infra/pkg/fsutil"
	"github.com/coderev/coderev-infra/pkg/svc/infra/managedcluster"
	"github.com/coderev/coderev-infra/pkg/svc/infra/network"
	"github.com/coderev/coderev-infra/pkg/svc/infra/tfjson"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
)

// File names written into the output directory.
const (
	NetworkFile = "network.tf.json"
	ClusterFile = "cluster.tf.json"
)

// ErrZoneDiscoveryUnavailable is returned when zones must be discovered but no EC2 client exists.
var ErrZoneDiscoveryUnavailable = errors.New("no availability zones configured and no EC2 client to discover them")

// Rendered holds both documents of one render.
type Rendered struct {
	Zones    []string
	Topology *network.Topology
	Network  *tfjson.Document
	Cluster  *tfjson.Document
}

// Render builds both documents in memory and checks that their references resolve against
// each other. ec2 is only used when spec lists no availability zones.
func Render(ctx context.Context, spec v1alpha1.InfraSpec, ec2 aws.EC2API) (*Rendered, error) {
	zones, err := resolveZones(ctx, spec.Network, ec2)
	if err != nil {
		return nil, err
	}

	topo, err := network.Render(spec, zones)
	if err != nil {
		return nil, fmt.Errorf("render network: %w", err)
	}

	cluster, err := managedcluster.Render(spec.Cluster, topo)
	if err != nil {
		return nil, fmt.Errorf("render managed cluster: %w", err)
	}

	merged, err := tfjson.Merge(topo.Doc, cluster)
	if err != nil {
		return nil, fmt.Errorf("combine documents: %w", err)
	}

	err = merged.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate documents: %w", err)
	}

	return &Rendered{Zones: zones, Topology: topo, Network: topo.Doc, Cluster: cluster}, nil
}

// Write stores both documents in dir and returns the written paths.
func (r *Rendered) Write(dir string) ([]string, error) {
	files := []struct {
		name string
		doc  *tfjson.Document
	}{
		{name: NetworkFile, doc: r.Network},
		{name: ClusterFile, doc: r.Cluster},
	}

	paths := make([]string, 0, len(files))

	for _, file := range files {
		data, err := file.doc.Render()
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, file.name)

		err = fsutil.WriteFile(path, data, fsutil.FilePermShared)
		if err != nil {
			return nil, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

// RenderFiles renders and writes the documents to spec.OutputDir, reporting progress to out.
func RenderFiles(ctx context.Context, spec v1alpha1.InfraSpec, ec2 aws.EC2API, out io.Writer) ([]string, error) {
	rendered, err := Render(ctx, spec, ec2)
	if err != nil {
		return nil, err
	}

	paths, err := rendered.Write(spec.OutputDir)
	if err != nil {
		return nil, err
	}

	notify.Activityf(out, "zones %v in %s", rendered.Zones, spec.Region)
	notify.Activityf(out, "%s", managedcluster.Describe(spec.Cluster, rendered.Topology))

	for _, path := range paths {
		notify.Generatef(out, "%s", path)
	}

	return paths, nil
}

func resolveZones(ctx context.Context, spec v1alpha1.NetworkSpec, ec2 aws.EC2API) ([]string, error) {
	if len(spec.AvailabilityZones) > 0 {
		return spec.AvailabilityZones, nil
	}

	if ec2 == nil {
		return nil, ErrZoneDiscoveryUnavailable
	}

	zones, err := aws.AvailableZones(ctx, ec2, spec.ZoneCount)
	if err != nil {
		return nil, fmt.Errorf("discover availability zones: %w", err)
	}

	return zones, nil
}
