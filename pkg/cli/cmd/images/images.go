// Package images implements 'coderev images'.
package images

import (
	"errors"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/cli/helpers"
	"github.com/coderev/coderev-infra/pkg/cli/lifecycle"
	"github.com/coderev/coderev-infra/pkg/client/docker"
	"github.com/coderev/coderev-infra/pkg/di"
	"github.com/coderev/coderev-infra/pkg/io/configmanager"
	"github.com/coderev/coderev-infra/pkg/svc/image"
	"github.com/coderev/coderev-infra/pkg/svc/preflight"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// LoadFlagName toggles loading after build.
const LoadFlagName = "load"

// Deps are the collaborators of the images commands.
type Deps struct {
	lifecycle.Deps

	Engine docker.Engine
}

// NewImagesCmd creates the images parent command.
func NewImagesCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "images",
		Short:        "Build application images and load them into the cluster",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(NewBuildCmd(runtimeContainer))
	cmd.AddCommand(NewLoadCmd(runtimeContainer))

	return cmd
}

// NewBuildCmd creates the images build command.
func NewBuildCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the api and worker images",
		Long: `Build every configured image from the shared context through the Docker engine.
The images are loaded into the local cluster afterwards unless --load=false is given.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	load := cmd.Flags().Bool(LoadFlagName, true, "load the built images into the local cluster")
	cfgManager := configmanager.NewCommandConfigManager(cmd,
		configmanager.ClusterNameField(),
		configmanager.ImageContextField(),
	)

	cmd.RunE = runWithEngine(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
			return HandleBuildRunE(cmd, env, deps, *load)
		})

	return cmd
}

// NewLoadCmd creates the images load command.
func NewLoadCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "load",
		Short:        "Load previously built images into the local cluster",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cfgManager := configmanager.NewCommandConfigManager(cmd, configmanager.ClusterNameField())

	cmd.RunE = runWithEngine(runtimeContainer, cfgManager, HandleLoadRunE)

	return cmd
}

func runWithEngine(
	runtimeContainer *di.Runtime,
	cfgManager *configmanager.ConfigManager,
	handler func(*cobra.Command, *v1alpha1.Environment, Deps) error,
) func(*cobra.Command, []string) error {
	return lifecycle.WrapHandler(runtimeContainer, cfgManager,
		func(cmd *cobra.Command, manager *configmanager.ConfigManager, deps lifecycle.Deps) error {
			engine, err := di.ResolveDockerEngine(deps.Injector)
			if err != nil {
				return err
			}

			return handler(cmd, manager.Config, Deps{Deps: deps, Engine: engine})
		})
}

// HandleBuildRunE builds the configured images and, when load is set, loads them.
func HandleBuildRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps, load bool) error {
	err := preflight.Run(cmd.Context(), cmd.OutOrStdout(), preflight.Docker(deps.Engine))
	if err != nil {
		return err
	}

	opts := []image.BuilderOption{image.WithBuildLog(cmd.ErrOrStderr())}
	if tmr := helpers.MaybeTimer(cmd, deps.Timer); tmr != nil {
		opts = append(opts, image.WithBuildTimer(tmr))
	}

	err = image.NewBuilder(deps.Engine, cmd.OutOrStdout(), opts...).Build(cmd.Context(), env.Spec.Images)
	if err != nil {
		return err
	}

	if !load {
		notify.Guidancef(cmd.OutOrStdout(), "Next steps:", "coderev images load")

		return nil
	}

	return loadImages(cmd, env, deps)
}

// HandleLoadRunE loads the configured images into every node of the local cluster.
func HandleLoadRunE(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
	err := preflight.Run(cmd.Context(), cmd.OutOrStdout(), preflight.Docker(deps.Engine))
	if err != nil {
		return err
	}

	return loadImages(cmd, env, deps)
}

func loadImages(cmd *cobra.Command, env *v1alpha1.Environment, deps Deps) error {
	err := lifecycle.EnsureCluster(cmd, deps.Deps, env.Spec.Cluster)
	if err != nil {
		return err
	}

	refs := lo.Map(env.Spec.Images.Images, func(img v1alpha1.Image, _ int) string { return img.Name })
	loader := image.NewLoader(deps.Engine, cmd.OutOrStdout(), helpers.MaybeTimer(cmd, deps.Timer))

	err = loader.Load(cmd.Context(), env.Spec.Cluster.Name, refs)
	if errors.Is(err, docker.ErrImageNotFound) {
		notify.Guidancef(cmd.OutOrStdout(), "Build the images first:", "coderev images build")
	}

	return err
}
