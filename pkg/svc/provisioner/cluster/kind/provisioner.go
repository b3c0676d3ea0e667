// Package kindprovisioner provisions the local kind cluster by running kind's own cobra
// commands in-process.
package kindprovisioner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/coderev/coderev-infra/pkg/cmd/runner"
	"github.com/coderev/coderev-infra/pkg/fsutil"
	clusterprovisioner "github.com/coderev/coderev-infra/pkg/svc/provisioner/cluster"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	kindcmd "sigs.k8s.io/kind/pkg/cmd"
	createcluster "sigs.k8s.io/kind/pkg/cmd/kind/create/cluster"
	deletecluster "sigs.k8s.io/kind/pkg/cmd/kind/delete/cluster"
	getclusters "sigs.k8s.io/kind/pkg/cmd/kind/get/clusters"
)

const noKindClustersMsg = "No kind clusters found."

// KindClusterProvisioner implements clusterprovisioner.ClusterProvisioner for kind.
type KindClusterProvisioner struct {
	kubeConfig string
	kindConfig *v1alpha4.Cluster
	runner     runner.CommandRunner
	out        io.Writer
	errOut     io.Writer
}

var _ clusterprovisioner.ClusterProvisioner = (*KindClusterProvisioner)(nil)

// NewKindClusterProvisioner constructs a provisioner streaming kind's output to out and errOut.
func NewKindClusterProvisioner(
	kindConfig *v1alpha4.Cluster,
	kubeConfig string,
	out, errOut io.Writer,
) *KindClusterProvisioner {
	return NewKindClusterProvisionerWithRunner(
		kindConfig,
		kubeConfig,
		runner.NewCobraCommandRunner(out, errOut),
		out,
		errOut,
	)
}

// NewKindClusterProvisionerWithRunner constructs a provisioner with an explicit command runner.
func NewKindClusterProvisionerWithRunner(
	kindConfig *v1alpha4.Cluster,
	kubeConfig string,
	commandRunner runner.CommandRunner,
	out, errOut io.Writer,
) *KindClusterProvisioner {
	if out == nil {
		out = os.Stdout
	}

	if errOut == nil {
		errOut = os.Stderr
	}

	return &KindClusterProvisioner{
		kubeConfig: kubeConfig,
		kindConfig: kindConfig,
		runner:     commandRunner,
		out:        out,
		errOut:     errOut,
	}
}

// Create writes the kind config to a temporary file, runs kind's create command with
// it, and removes the file again whether or not creation succeeded.
func (k *KindClusterProvisioner) Create(ctx context.Context, name string) error {
	target := setName(name, k.kindConfig.Name)

	configYAML, err := MarshalConfig(k.kindConfig)
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp("", "kind-config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	configPath := tmpFile.Name()

	defer func() { _ = os.Remove(configPath) }()

	_, err = tmpFile.Write(configYAML)
	closeErr := tmpFile.Close()

	if err != nil {
		return fmt.Errorf("write temp config file: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("close temp config file: %w", closeErr)
	}

	args := []string{"--name", target, "--config", configPath}

	kubeconfigPath, err := fsutil.ExpandHomePath(k.kubeConfig)
	if err != nil {
		return fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	if kubeconfigPath != "" {
		args = append(args, "--kubeconfig", kubeconfigPath)
	}

	cmd := createcluster.NewCommand(&streamLogger{writer: k.out}, k.streams())

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("failed to create kind cluster: %w", err)
	}

	return nil
}

// Delete deletes a kind cluster using kind's delete command.
// Returns clusterprovisioner.ErrClusterNotFound if the cluster does not exist.
func (k *KindClusterProvisioner) Delete(ctx context.Context, name string) error {
	target := setName(name, k.kindConfig.Name)

	exists, err := k.Exists(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to check cluster existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", clusterprovisioner.ErrClusterNotFound, target)
	}

	kubeconfigPath, err := fsutil.ExpandHomePath(k.kubeConfig)
	if err != nil {
		return fmt.Errorf("failed to expand kubeconfig path: %w", err)
	}

	args := []string{"--name", target}
	if kubeconfigPath != "" {
		args = append(args, "--kubeconfig", kubeconfigPath)
	}

	cmd := deletecluster.NewCommand(&streamLogger{writer: k.out}, k.streams())

	_, err = k.runner.Run(ctx, cmd, args)
	if err != nil {
		return fmt.Errorf("failed to delete kind cluster: %w", err)
	}

	return nil
}

// List returns all kind clusters.
func (k *KindClusterProvisioner) List(ctx context.Context) ([]string, error) {
	var outBuf bytes.Buffer

	// get clusters prints names to streams.Out directly, so capture that instead of
	// the runner's tee.
	cmd := getclusters.NewCommand(
		&streamLogger{writer: &outBuf},
		kindcmd.IOStreams{Out: &outBuf, ErrOut: io.Discard},
	)

	result, err := k.runner.Run(ctx, cmd, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to list kind clusters: %w", err)
	}

	output := outBuf.Bytes()
	if len(output) == 0 {
		output = []byte(result.Stdout)
	}

	var clusters []string

	for line := range bytes.SplitSeq(output, []byte("\n")) {
		name := string(bytes.TrimSpace(line))
		if name != "" && name != noKindClustersMsg {
			clusters = append(clusters, name)
		}
	}

	return clusters, nil
}

// Exists checks if a kind cluster exists.
func (k *KindClusterProvisioner) Exists(ctx context.Context, name string) (bool, error) {
	clusters, err := k.List(ctx)
	if err != nil {
		return false, err
	}

	return slices.Contains(clusters, setName(name, k.kindConfig.Name)), nil
}

func (k *KindClusterProvisioner) streams() kindcmd.IOStreams {
	return kindcmd.IOStreams{Out: k.out, ErrOut: k.errOut}
}

func setName(name string, kindConfigName string) string {
	if name == "" {
		return kindConfigName
	}

	return name
}
