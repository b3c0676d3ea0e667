package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
)

var (
	// ErrExecFailed is returned when a container exec command exits non-zero.
	ErrExecFailed = errors.New("container exec failed")
	// ErrEmptyCommand is returned when no command is given to exec.
	ErrEmptyCommand = errors.New("exec command is empty")
)

// ExecAPI is the part of the Docker API needed to run commands in containers.
type ExecAPI interface {
	ContainerExecCreate(
		ctx context.Context,
		container string,
		options container.ExecOptions,
	) (container.ExecCreateResponse, error)
	ContainerExecAttach(
		ctx context.Context,
		execID string,
		config container.ExecStartOptions,
	) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// ContainerExecutor provides methods for executing commands in containers.
type ContainerExecutor struct {
	api ExecAPI
}

// NewContainerExecutor creates a new container executor.
func NewContainerExecutor(api ExecAPI) *ContainerExecutor {
	return &ContainerExecutor{api: api}
}

// ExecInContainer executes a command inside a container and returns stdout.
func (e *ContainerExecutor) ExecInContainer(
	ctx context.Context,
	containerName string,
	cmd []string,
) (string, error) {
	if len(cmd) == 0 {
		return "", ErrEmptyCommand
	}

	created, err := e.api.ContainerExecCreate(ctx, containerName, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create exec: %w", err)
	}

	resp, err := e.api.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer resp.Close()

	var stdout, stderr bytes.Buffer

	_, err = stdcopy.StdCopy(&stdout, &stderr, resp.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to read exec output: %w", err)
	}

	inspect, err := e.api.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return "", fmt.Errorf("failed to inspect exec: %w", err)
	}

	if inspect.ExitCode != 0 {
		return "", fmt.Errorf(
			"%w: %s exited with code %d: %s",
			ErrExecFailed,
			cmd[0],
			inspect.ExitCode,
			strings.TrimSpace(stderr.String()),
		)
	}

	return stdout.String(), nil
}
