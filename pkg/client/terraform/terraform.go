// Package terraform drives the terraform CLI against a rendered configuration directory
// through terraform-exec.
package terraform

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-version"
	"github.com/hashicorp/terraform-exec/tfexec"
)

const (
	// Binary is the executable looked up on PATH.
	Binary = "terraform"
	// PlanFile is the saved plan applied after approval, relative to the working directory.
	PlanFile = "coderev.tfplan"
)

var (
	// ErrEmptyDir is returned when no working directory is configured.
	ErrEmptyDir = errors.New("terraform working directory is empty")
	// ErrNotApproved is returned when the operator declines a planned change.
	ErrNotApproved = errors.New("terraform change not approved")
	// ErrUnsupportedVersion is returned when the installed terraform misses the constraint.
	ErrUnsupportedVersion = errors.New("unsupported terraform version")
)

// Executor is the part of *tfexec.Terraform the client uses.
type Executor interface {
	Init(ctx context.Context, opts ...tfexec.InitOption) error
	Plan(ctx context.Context, opts ...tfexec.PlanOption) (bool, error)
	Apply(ctx context.Context, opts ...tfexec.ApplyOption) error
	Destroy(ctx context.Context, opts ...tfexec.DestroyOption) error
	Version(ctx context.Context, skipCache bool) (*version.Version, map[string]*version.Version, error)
}

// Approver decides whether a saved plan may be applied.
type Approver func(question string) bool

// Client runs terraform subcommands in one working directory.
type Client struct {
	exec    Executor
	approve Approver
	out     io.Writer
}

// NewClient runs the terraform binary at execPath inside dir, streaming to out and errOut.
func NewClient(dir, execPath string, out, errOut io.Writer, approve Approver) (*Client, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}

	tf, err := tfexec.NewTerraform(dir, execPath)
	if err != nil {
		return nil, fmt.Errorf("failed to set up terraform in %s: %w", dir, err)
	}

	tf.SetStdout(out)
	tf.SetStderr(errOut)

	return NewClientWithExecutor(tf, out, approve), nil
}

// NewClientWithExecutor wraps an existing executor. A nil approver declines every plan.
func NewClientWithExecutor(executor Executor, out io.Writer, approve Approver) *Client {
	if approve == nil {
		approve = func(string) bool { return false }
	}

	if out == nil {
		out = io.Discard
	}

	return &Client{exec: executor, approve: approve, out: out}
}

// CheckVersion fails with ErrUnsupportedVersion when the binary does not satisfy constraint.
func (c *Client) CheckVersion(ctx context.Context, constraint string) error {
	constraints, err := version.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid terraform version constraint %q: %w", constraint, err)
	}

	installed, _, err := c.exec.Version(ctx, false)
	if err != nil {
		return fmt.Errorf("terraform version: %w", err)
	}

	if !constraints.Check(installed) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, installed, constraint)
	}

	return nil
}

// Init initialises providers and the state backend.
func (c *Client) Init(ctx context.Context) error {
	err := c.exec.Init(ctx)
	if err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}

	return nil
}

// Plan shows the changes apply would make.
func (c *Client) Plan(ctx context.Context) error {
	_, err := c.exec.Plan(ctx)
	if err != nil {
		return fmt.Errorf("terraform plan: %w", err)
	}

	return nil
}

// Apply creates or updates the declared resources. Without autoApprove the change is
// planned into PlanFile first and only that plan is applied once approved.
func (c *Client) Apply(ctx context.Context, autoApprove bool) error {
	if autoApprove {
		err := c.exec.Apply(ctx)
		if err != nil {
			return fmt.Errorf("terraform apply: %w", err)
		}

		return nil
	}

	return c.applyApproved(ctx, "apply", "Apply these changes?")
}

// Destroy removes every resource in the state, planning and asking first unless autoApprove.
func (c *Client) Destroy(ctx context.Context, autoApprove bool) error {
	if autoApprove {
		err := c.exec.Destroy(ctx)
		if err != nil {
			return fmt.Errorf("terraform destroy: %w", err)
		}

		return nil
	}

	return c.applyApproved(ctx, "destroy", "Destroy every resource in the state?", tfexec.Destroy(true))
}

func (c *Client) applyApproved(ctx context.Context, op, question string, opts ...tfexec.PlanOption) error {
	opts = append(opts, tfexec.Out(PlanFile))

	changed, err := c.exec.Plan(ctx, opts...)
	if err != nil {
		return fmt.Errorf("terraform %s: plan: %w", op, err)
	}

	if !changed {
		_, _ = fmt.Fprintln(c.out, "No changes. Infrastructure matches the configuration.")

		return nil
	}

	if !c.approve(question) {
		return fmt.Errorf("%w: %s", ErrNotApproved, op)
	}

	err = c.exec.Apply(ctx, tfexec.DirOrPlan(PlanFile))
	if err != nil {
		return fmt.Errorf("terraform %s: %w", op, err)
	}

	return nil
}
