package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/coderev/coderev-infra/pkg/client/docker"
	"github.com/coderev/coderev-infra/pkg/utils/notify"
	"github.com/coderev/coderev-infra/pkg/utils/timer"
	archive "github.com/moby/go-archive"
	"github.com/samber/lo"
)

const (
	// KindClusterLabel is set by kind on every node container of a cluster.
	KindClusterLabel = "io.x-k8s.kind.cluster"

	// kind nodes mount a small tmpfs on /tmp, so archives go to /root.
	nodeArchiveDir = "/root"
	archiveName    = "coderev-images.tar"
)

// Loader side-loads images into kind nodes.
type Loader struct {
	engine docker.Engine
	out    io.Writer
	timer  timer.Timer
}

// NewLoader returns a Loader reporting progress to out. tmr may be nil.
func NewLoader(engine docker.Engine, out io.Writer, tmr timer.Timer) *Loader {
	return &Loader{engine: engine, out: out, timer: tmr}
}

// Nodes returns the node containers of a kind cluster.
func (l *Loader) Nodes(ctx context.Context, clusterName string) ([]docker.Container, error) {
	nodes, err := l.engine.ListContainers(ctx, KindClusterLabel+"="+clusterName)
	if err != nil {
		return nil, err
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoNodes, clusterName)
	}

	return nodes, nil
}

// Load saves refs into one archive and imports it into every node of the cluster
// concurrently.
func (l *Loader) Load(ctx context.Context, clusterName string, refs []string) error {
	if len(refs) == 0 {
		return ErrNoImages
	}

	normalized := make([]string, 0, len(refs))

	for _, ref := range refs {
		full, err := NormalizeReference(ref)
		if err != nil {
			return err
		}

		normalized = append(normalized, full)
	}

	nodes, err := l.Nodes(ctx, clusterName)
	if err != nil {
		return err
	}

	workDir, err := l.saveArchive(ctx, refs)
	if err != nil {
		return err
	}

	defer func() { _ = os.RemoveAll(workDir) }()

	tasks := lo.Map(nodes, func(node docker.Container, _ int) notify.Task {
		return notify.Task{
			Name: node.Name,
			Run: func(ctx context.Context) error {
				return l.importInto(ctx, node, workDir, normalized)
			},
		}
	})

	opts := []notify.TaskGroupOption{notify.WithVerbs(notify.LoadVerbs())}
	if l.timer != nil {
		opts = append(opts, notify.WithTimer(l.timer))
	}

	err = notify.NewTaskGroup("Load images into "+clusterName, "🚚", l.out, opts...).Run(ctx, tasks...)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}

	return nil
}

// saveArchive writes the docker-archive of refs into a fresh temp directory and returns it.
func (l *Loader) saveArchive(ctx context.Context, refs []string) (string, error) {
	workDir, err := os.MkdirTemp("", "coderev-images-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	err = l.writeArchive(ctx, filepath.Join(workDir, archiveName), refs)
	if err != nil {
		_ = os.RemoveAll(workDir)

		return "", err
	}

	return workDir, nil
}

func (l *Loader) writeArchive(ctx context.Context, target string, refs []string) error {
	reader, err := l.engine.SaveImages(ctx, refs)
	if err != nil {
		return err
	}

	defer func() { _ = reader.Close() }()

	file, err := os.Create(target) //nolint:gosec // path is inside our own temp dir
	if err != nil {
		return fmt.Errorf("failed to create image archive: %w", err)
	}

	_, err = io.Copy(file, reader)
	closeErr := file.Close()

	if err != nil {
		return fmt.Errorf("failed to write image archive: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close image archive: %w", closeErr)
	}

	return nil
}

func (l *Loader) importInto(
	ctx context.Context,
	node docker.Container,
	workDir string,
	refs []string,
) error {
	content, err := archive.TarWithOptions(workDir, &archive.TarOptions{
		IncludeFiles: []string{archiveName},
	})
	if err != nil {
		return fmt.Errorf("failed to package image archive: %w", err)
	}

	defer func() { _ = content.Close() }()

	err = l.engine.CopyToContainer(ctx, node.ID, nodeArchiveDir, content)
	if err != nil {
		return err
	}

	nodePath := path.Join(nodeArchiveDir, archiveName)

	defer func() {
		_, _ = l.engine.Exec(context.WithoutCancel(ctx), node.ID, []string{"rm", "-f", nodePath})
	}()

	// --all-platforms is left out: multi-arch manifests reference layers docker save
	// did not include.
	_, err = l.engine.Exec(ctx, node.ID, []string{
		"ctr", "--namespace=k8s.io", "images", "import", "--digests", nodePath,
	})
	if err != nil {
		return fmt.Errorf("ctr import failed: %w", err)
	}

	listed, err := l.engine.Exec(ctx, node.ID, []string{
		"ctr", "--namespace=k8s.io", "images", "list", "-q",
	})
	if err != nil {
		return fmt.Errorf("ctr list failed: %w", err)
	}

	present := lo.SliceToMap(strings.Fields(listed), func(ref string) (string, struct{}) {
		return ref, struct{}{}
	})

	for _, ref := range refs {
		if _, ok := present[ref]; !ok {
			return fmt.Errorf("%w: %s", ErrImageNotImported, ref)
		}
	}

	return nil
}
