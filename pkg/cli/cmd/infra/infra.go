// Package infra implements 'coderev infra', which renders and applies the cloud templates.
package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/client/aws"
	"github.com/coderev/coderev-infra/pkg/client/terraform"
	"github.com/coderev/coderev-infra/pkg/cli/ui/confirm"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	infrasvc "github.com/coderev/coderev-infra/pkg/svc/infra"
	"github.com/coderev/coderev-infra/pkg/svc/infra/network"
	"github.com/coderev/coderev-infra/pkg/svc/preflight"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/spf13/cobra"
)

const (
	// AutoApproveFlagName skips the interactive terraform approval.
	AutoApproveFlagName = "auto-approve"

	terraformHint = "install terraform >= 1.5 from https://developer.hashicorp.com/terraform/install"
)

// ErrMissingAWSDependency indicates that no AWS client factory was resolved.
var ErrMissingAWSDependency = errors.New("missing aws clients dependency")

// TerraformFactory creates the terraform driver for a rendered directory. Approval prompts
// read from in.
type TerraformFactory func(
	ctx context.Context,
	dir string,
	in io.Reader,
	out, errOut io.Writer,
) (infrasvc.Terraform, error)

// Deps are the collaborators of the infra commands.
type Deps struct {
	Timer     timer.Timer
	AWS       di.AWSClientsFactory
	LookPath  preflight.LookPath
	Terraform TerraformFactory
}

// NewTerraform drives the terraform binary on PATH after checking it satisfies the
// version the templates require.
func NewTerraform(
	ctx context.Context,
	dir string,
	in io.Reader,
	out, errOut io.Writer,
) (infrasvc.Terraform, error) {
	execPath, err := exec.LookPath(terraform.Binary)
	if err != nil {
		return nil, fmt.Errorf("%s not found on PATH: %w", terraform.Binary, err)
	}

	client, err := terraform.NewClient(dir, execPath, out, errOut, func(question string) bool {
		return confirm.Prompt(in, out, question)
	})
	if err != nil {
		return nil, err
	}

	err = client.CheckVersion(ctx, network.TerraformVersion)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// NewInfraCmd creates the infra parent command.
func NewInfraCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infra",
		Short: "Render and apply the cloud network and managed cluster",
		Long: `Render the Terraform JSON templates for the VPC and the EKS cluster, and run
terraform against them. Terraform owns the state; nothing is stored here.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewRenderCmd(runtimeContainer))
	cmd.AddCommand(newTerraformCmd(runtimeContainer, infrasvc.OperationPlan, "Show the changes terraform would make"))
	cmd.AddCommand(newTerraformCmd(runtimeContainer, infrasvc.OperationApply, "Create or update the infrastructure"))
	cmd.AddCommand(newTerraformCmd(runtimeContainer, infrasvc.OperationDestroy, "Destroy the infrastructure"))

	return cmd
}

// NewRenderCmd creates the infra render command.
func NewRenderCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "render",
		Short:        "Write network.tf.json and cluster.tf.json",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.InfraFields()...)

	cmd.RunE = wrap(runtimeContainer, cfgManager, HandleRenderRunE)

	return cmd
}

func newTerraformCmd(runtimeContainer *di.Runtime, op infrasvc.Operation, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          string(op),
		Short:        short,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var autoApprove bool

	if op != infrasvc.OperationPlan {
		cmd.Flags().BoolVar(&autoApprove, AutoApproveFlagName, false, "skip the interactive approval")
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.InfraFields()...)

	cmd.RunE = wrap(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
			return HandleTerraformRunE(cmd, env, deps, op, autoApprove)
		})

	return cmd
}

func wrap(
	runtimeContainer *di.Runtime,
	cfgManager *configmanager.ConfigManager,
	handler func(*cobra.Command, *v1alpha1.Environment, Deps) error,
) func(*cobra.Command, []string) error {
	return lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			awsClients, err := di.ResolveAWSClientsFactory(deps.Injector)
			if err != nil {
				return err
			}

			return handler(cmd, manager.Config, Deps{
				Timer:     deps.Timer,
				AWS:       awsClients,
				Terraform: NewTerraform,
			})
		})
}

// HandleRenderRunE renders the templates. AWS is only contacted when zones must be
// discovered.
func HandleRenderRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
	out := cmd.OutOrStdout()
	spec := env.Spec.Infra

	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	notify.Titlef(out, "📐", "Render infra...")

	var ec2 aws.EC2API

	if len(spec.Network.AvailabilityZones) == 0 {
		clients, err := awsClients(cmd.Context(), deps, spec.Region)
		if err != nil {
			return err
		}

		ec2 = clients.EC2
	}

	_, err := infrasvc.RenderFiles(cmd.Context(), spec, ec2, out)
	if err != nil {
		return fmt.Errorf("failed to render infra: %w", err)
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, deps.Timer), "templates written to %s", spec.OutputDir)

	return nil
}

// HandleTerraformRunE checks the preconditions, renders the templates, and runs op.
func HandleTerraformRunE(
	cmd *cobra.Command,
	env *v1alpha1.Environment,
	deps Deps,
	op infrasvc.Operation,
	autoApprove bool,
) error {
	out := cmd.OutOrStdout()
	spec := env.Spec.Infra

	clients, err := awsClients(cmd.Context(), deps, spec.Region)
	if err != nil {
		return err
	}

	err = preflight.Run(cmd.Context(), out,
		preflight.Binary(terraform.Binary, terraformHint, deps.LookPath),
		preflight.CallerIdentity(clients.STS),
	)
	if err != nil {
		return err
	}

	if deps.Timer != nil {
		deps.Timer.NewStage()
	}

	notify.Titlef(out, "📐", "Render infra...")

	_, err = infrasvc.RenderFiles(cmd.Context(), spec, clients.EC2, out)
	if err != nil {
		return fmt.Errorf("failed to render infra: %w", err)
	}

	notify.Titlef(out, "🏗️", "terraform %s...", op)

	tf, err := deps.Terraform(cmd.Context(), spec.OutputDir, cmd.InOrStdin(), out, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	err = infrasvc.Run(cmd.Context(), tf, op, autoApprove)
	if err != nil {
		return err
	}

	notify.SuccessWithTimerf(out, helpers.MaybeTimer(cmd, deps.Timer), "terraform %s finished", op)

	return nil
}

func awsClients(ctx context.Context, deps Deps, region string) (*aws.Clients, error) {
	if deps.AWS == nil {
		return nil, ErrMissingAWSDependency
	}

	clients, err := deps.AWS(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS clients: %w", err)
	}

	return clients, nil
}
