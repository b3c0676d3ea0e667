// Package preflight checks the prerequisites of a command before it changes anything.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/coderev/coderev-infra/pkg/client/aws"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
)

// ErrPreflightFailed wraps every failed check.
var ErrPreflightFailed = errors.New("preflight check failed")

// Failure is a failed check together with what the operator can do about it.
type Failure struct {
	Check string
	Hint  string
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Check, f.Err)
}

func (f *Failure) Unwrap() []error {
	return []error{ErrPreflightFailed, f.Err}
}

// Check is one named precondition.
type Check struct {
	Name string
	Hint string
	Run  func(ctx context.Context) (string, error)
}

// Pinger is satisfied by the Docker engine client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LookPath resolves binaries; replaced in tests.
type LookPath func(file string) (string, error)

// Binary checks that name is on PATH.
func Binary(name, hint string, lookPath LookPath) Check {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	return Check{
		Name: name + " on PATH",
		Hint: hint,
		Run: func(context.Context) (string, error) {
			path, err := lookPath(name)
			if err != nil {
				return "", fmt.Errorf("%s not found: %w", name, err)
			}

			return path, nil
		},
	}
}

// Docker checks that the container engine answers.
func Docker(engine Pinger) Check {
	return Check{
		Name: "docker engine",
		Hint: "start Docker Desktop or the docker daemon, or point DOCKER_HOST at a running engine",
		Run: func(ctx context.Context) (string, error) {
			err := engine.Ping(ctx)
			if err != nil {
				return "", err //nolint:wrapcheck // wrapped by Failure
			}

			return "reachable", nil
		},
	}
}

// CallerIdentity checks that AWS credentials resolve to an identity.
func CallerIdentity(api aws.STSAPI) Check {
	return Check{
		Name: "aws credentials",
		Hint: "run 'aws sso login' or export AWS_PROFILE / AWS_ACCESS_KEY_ID for the target account",
		Run: func(ctx context.Context) (string, error) {
			identity, err := aws.CallerIdentity(ctx, api)
			if err != nil {
				return "", err //nolint:wrapcheck // wrapped by Failure
			}

			return identity.ARN, nil
		},
	}
}

// Run executes checks in order, printing one line per check, and stops at the first
// failure. The returned error is a *Failure.
func Run(ctx context.Context, out io.Writer, checks ...Check) error {
	for _, check := range checks {
		detail, err := check.Run(ctx)
		if err != nil {
			notify.Errorf(out, "%s", check.Name)

			return &Failure{Check: check.Name, Hint: check.Hint, Err: err}
		}

		notify.Successf(out, "%s (%s)", check.Name, detail)
	}

	return nil
}

// HintOf returns the remediation hint carried by err, if any.
func HintOf(err error) string {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Hint
	}

	return ""
}
