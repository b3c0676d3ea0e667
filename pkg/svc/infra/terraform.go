package infra

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned for an operation other than plan, apply, or destroy.
var ErrUnknownOperation = errors.New("unknown terraform operation")

// Operation is a terraform subcommand run after init.
type Operation string

// Supported operations.
const (
	OperationPlan    Operation = "plan"
	OperationApply   Operation = "apply"
	OperationDestroy Operation = "destroy"
)

// Terraform is the CLI surface Run drives.
type Terraform interface {
	Init(ctx context.Context) error
	Plan(ctx context.Context) error
	Apply(ctx context.Context, autoApprove bool) error
	Destroy(ctx context.Context, autoApprove bool) error
}

// Run initialises the working directory, then runs op. autoApprove is ignored by plan.
func Run(ctx context.Context, tf Terraform, op Operation, autoApprove bool) error {
	var action func() error

	switch op {
	case OperationPlan:
		action = func() error { return tf.Plan(ctx) }
	case OperationApply:
		action = func() error { return tf.Apply(ctx, autoApprove) }
	case OperationDestroy:
		action = func() error { return tf.Destroy(ctx, autoApprove) }
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	err := tf.Init(ctx)
	if err != nil {
		return err
	}

	return action()
}
