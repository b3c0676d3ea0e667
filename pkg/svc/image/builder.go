package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/client/docker"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	"github.com/docker/docker/pkg/jsonmessage"
	archive "github.com/moby/go-archive"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/samber/lo"
)

const (
	dockerignoreFile = ".dockerignore"
	failedLogLines   = 20
)

// Builder builds images through the Docker engine API.
type Builder struct {
	engine docker.Engine
	out    io.Writer
	log    io.Writer
	timer  timer.Timer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildLog streams every build's output to w, each line prefixed with the image name.
func WithBuildLog(w io.Writer) BuilderOption {
	return func(b *Builder) { b.log = w }
}

// WithBuildTimer prints stage timing after the builds finish.
func WithBuildTimer(tmr timer.Timer) BuilderOption {
	return func(b *Builder) { b.timer = tmr }
}

// NewBuilder returns a Builder reporting progress to out.
func NewBuilder(engine docker.Engine, out io.Writer, opts ...BuilderOption) *Builder {
	builder := &Builder{engine: engine, out: out}
	for _, opt := range opts {
		opt(builder)
	}

	return builder
}

// Build builds every configured image concurrently from the shared context directory.
// The first failing build cancels the others.
func (b *Builder) Build(ctx context.Context, spec v1alpha1.ImagesSpec) error {
	if len(spec.Images) == 0 {
		return ErrNoImages
	}

	excludes, err := readDockerignore(spec.Context)
	if err != nil {
		return err
	}

	tasks := lo.Map(spec.Images, func(img v1alpha1.Image, _ int) notify.Task {
		return notify.Task{
			Name: img.Name,
			Run: func(ctx context.Context) error {
				return b.buildOne(ctx, spec.Context, excludes, img)
			},
		}
	})

	opts := []notify.TaskGroupOption{notify.WithVerbs(notify.BuildVerbs())}
	if b.timer != nil {
		opts = append(opts, notify.WithTimer(b.timer))
	}

	err = notify.NewTaskGroup("Build images", "🔨", b.out, opts...).Run(ctx, tasks...)
	if err != nil {
		return fmt.Errorf("failed to build images: %w", err)
	}

	return nil
}

func (b *Builder) buildOne(
	ctx context.Context,
	contextDir string,
	excludes []string,
	img v1alpha1.Image,
) error {
	_, err := NormalizeReference(img.Name)
	if err != nil {
		return err
	}

	_, err = os.Stat(filepath.Join(contextDir, img.Dockerfile))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDockerfileNotFound, img.Dockerfile)
	}

	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{
		ExcludePatterns: keepBuildFiles(excludes, img.Dockerfile),
	})
	if err != nil {
		return fmt.Errorf("failed to archive build context %s: %w", contextDir, err)
	}

	defer func() { _ = buildContext.Close() }()

	body, err := b.engine.BuildImage(ctx, buildContext, docker.BuildOptions{
		Tags:       []string{img.Name},
		Dockerfile: filepath.ToSlash(img.Dockerfile),
	})
	if err != nil {
		return err
	}

	defer func() { _ = body.Close() }()

	var captured bytes.Buffer

	var sink io.Writer = &captured
	if b.log != nil {
		sink = io.MultiWriter(&captured, newPrefixWriter(b.log, img.Name))
	}

	err = jsonmessage.DisplayJSONMessagesStream(body, sink, 0, false, nil)
	if err != nil {
		return fmt.Errorf("%w: %w\n%s", ErrBuildFailed, err, tail(captured.String(), failedLogLines))
	}

	return nil
}

func readDockerignore(contextDir string) ([]string, error) {
	file, err := os.Open(filepath.Join(contextDir, dockerignoreFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dockerignoreFile, err)
	}

	defer func() { _ = file.Close() }()

	patterns, err := ignorefile.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", dockerignoreFile, err)
	}

	return patterns, nil
}

// keepBuildFiles re-includes the Dockerfile and .dockerignore, which the daemon needs
// even when an ignore pattern matches them.
func keepBuildFiles(excludes []string, dockerfile string) []string {
	if len(excludes) == 0 {
		return nil
	}

	kept := make([]string, 0, len(excludes)+2)
	kept = append(kept, excludes...)

	return append(kept, "!"+filepath.ToSlash(dockerfile), "!"+dockerignoreFile)
}

func tail(text string, lines int) string {
	all := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(all) > lines {
		all = all[len(all)-lines:]
	}

	return strings.Join(all, "\n")
}
