package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// Error definitions for container engine operations.
var (
	// ErrAPIClientNil is returned when apiClient is nil.
	ErrAPIClientNil = errors.New("apiClient cannot be nil")
	// ErrEngineUnreachable is returned when the Docker engine does not answer a ping.
	ErrEngineUnreachable = errors.New("docker engine is not reachable")
	// ErrImageNotFound is returned when an image to export does not exist locally.
	ErrImageNotFound = errors.New("image not found")
)

// BuildOptions configures a single image build.
type BuildOptions struct {
	Tags       []string
	Dockerfile string
	BuildArgs  map[string]*string
	NoCache    bool
	Pull       bool
}

// Container is the subset of container metadata used by image loading.
type Container struct {
	ID     string
	Name   string
	State  string
	Labels map[string]string
}

// Engine is the container engine surface used by coderev.
type Engine interface {
	Ping(ctx context.Context) error
	BuildImage(ctx context.Context, buildContext io.Reader, opts BuildOptions) (io.ReadCloser, error)
	SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error)
	ListContainers(ctx context.Context, labels ...string) ([]Container, error)
	CopyToContainer(ctx context.Context, containerID, dstDir string, content io.Reader) error
	Exec(ctx context.Context, containerID string, cmd []string) (string, error)
	Close() error
}

// GetDockerClient creates a Docker client using environment configuration.
func GetDockerClient() (client.APIClient, error) {
	dockerClient, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return dockerClient, nil
}

// Client implements Engine on top of the Docker SDK.
type Client struct {
	api      client.APIClient
	executor *ContainerExecutor
}

var _ Engine = (*Client)(nil)

// NewClient wraps an existing Docker API client.
func NewClient(api client.APIClient) (*Client, error) {
	if api == nil {
		return nil, ErrAPIClientNil
	}

	return &Client{api: api, executor: NewContainerExecutor(api)}, nil
}

// NewClientFromEnv connects to the engine configured by DOCKER_HOST and friends.
func NewClientFromEnv() (*Client, error) {
	api, err := GetDockerClient()
	if err != nil {
		return nil, err
	}

	return NewClient(api)
}

// Ping checks that the engine answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEngineUnreachable, err)
	}

	return nil
}

// BuildImage starts a build and returns the JSON message stream of the daemon.
// The caller must close the returned reader.
func (c *Client) BuildImage(
	ctx context.Context,
	buildContext io.Reader,
	opts BuildOptions,
) (io.ReadCloser, error) {
	resp, err := c.api.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        opts.Tags,
		Dockerfile:  opts.Dockerfile,
		BuildArgs:   opts.BuildArgs,
		NoCache:     opts.NoCache,
		PullParent:  opts.Pull,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start build of %s: %w", strings.Join(opts.Tags, ","), err)
	}

	return resp.Body, nil
}

// SaveImages exports the given images as a single docker-archive tarball.
func (c *Client) SaveImages(ctx context.Context, refs []string) (io.ReadCloser, error) {
	reader, err := c.api.ImageSave(ctx, refs)
	if cerrdefs.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrImageNotFound, strings.Join(refs, ","), err)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to save images %s: %w", strings.Join(refs, ","), err)
	}

	return reader, nil
}

// ListContainers returns all containers (running or not) carrying every given label filter.
func (c *Client) ListContainers(ctx context.Context, labels ...string) ([]Container, error) {
	args := filters.NewArgs()
	for _, label := range labels {
		args.Add("label", label)
	}

	summaries, err := c.api.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	containers := make([]Container, 0, len(summaries))
	for _, summary := range summaries {
		name := summary.ID
		if len(summary.Names) > 0 {
			name = strings.TrimPrefix(summary.Names[0], "/")
		}

		containers = append(containers, Container{
			ID:     summary.ID,
			Name:   name,
			State:  string(summary.State),
			Labels: summary.Labels,
		})
	}

	return containers, nil
}

// CopyToContainer extracts a tar stream into dstDir inside the container.
func (c *Client) CopyToContainer(
	ctx context.Context,
	containerID, dstDir string,
	content io.Reader,
) error {
	err := c.api.CopyToContainer(ctx, containerID, dstDir, content, container.CopyToContainerOptions{})
	if err != nil {
		return fmt.Errorf("failed to copy into container %s: %w", containerID, err)
	}

	return nil
}

// Exec runs cmd inside the container and returns its stdout.
func (c *Client) Exec(ctx context.Context, containerID string, cmd []string) (string, error) {
	return c.executor.ExecInContainer(ctx, containerID, cmd)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	err := c.api.Close()
	if err != nil {
		return fmt.Errorf("failed to close docker client: %w", err)
	}

	return nil
}

// Shutdown closes the client when the dependency container is torn down.
func (c *Client) Shutdown() error {
	return c.Close()
}
