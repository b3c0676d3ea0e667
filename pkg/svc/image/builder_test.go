package image_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coderev/coderev-infra/pkg/apis/environment/v1alpha1"
	"github.com/coderev/coderev-infra/pkg/client/docker"
	"github.com/coderev/coderev-infra/pkg/svc/image"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var errDaemon = errors.New("daemon unavailable")

func buildContextDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"Dockerfile.api":    "FROM python:3.12-slim\n",
		"Dockerfile.worker": "FROM python:3.12-slim\n",
		".dockerignore":     "# local files\n.env\n*.pyc\n",
		"app.py":            "print('hi')\n",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	return dir
}

func stream(messages ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(messages, "\n")))
}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()

	dir := buildContextDir(t)
	engine := docker.NewMockEngine(t)

	for _, img := range v1alpha1.DefaultImages() {
		engine.On("BuildImage", mock.Anything, mock.Anything, docker.BuildOptions{
			Tags:       []string{img.Name},
			Dockerfile: img.Dockerfile,
		}).Return(stream(`{"stream":"Step 1/1 : FROM python:3.12-slim\n"}`), nil).Once()
	}

	var out, log bytes.Buffer

	builder := image.NewBuilder(engine, &out, image.WithBuildLog(&log))
	err := builder.Build(context.Background(), v1alpha1.ImagesSpec{
		Context: dir,
		Images:  v1alpha1.DefaultImages(),
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Build images...")
	assert.Contains(t, out.String(), "✔ coderev-api:latest built")
	assert.Contains(t, out.String(), "✔ coderev-worker:latest built")
	assert.Contains(t, log.String(), "[coderev-api:latest] Step 1/1")
}

func TestBuilderBuildErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		images  []v1alpha1.Image
		setup   func(engine *docker.MockEngine)
		wantErr error
		wantMsg string
	}{
		{
			name:    "no images",
			wantErr: image.ErrNoImages,
		},
		{
			name:    "missing dockerfile",
			images:  []v1alpha1.Image{{Name: "coderev-api:latest", Dockerfile: "Dockerfile.missing"}},
			wantErr: image.ErrDockerfileNotFound,
		},
		{
			name:    "invalid reference",
			images:  []v1alpha1.Image{{Name: "Bad Name", Dockerfile: "Dockerfile.api"}},
			wantErr: image.ErrInvalidReference,
		},
		{
			name:   "engine refuses build",
			images: []v1alpha1.Image{{Name: "coderev-api:latest", Dockerfile: "Dockerfile.api"}},
			setup: func(engine *docker.MockEngine) {
				engine.On("BuildImage", mock.Anything, mock.Anything, mock.Anything).Return(nil, errDaemon)
			},
			wantErr: errDaemon,
		},
		{
			name:   "build step fails",
			images: []v1alpha1.Image{{Name: "coderev-api:latest", Dockerfile: "Dockerfile.api"}},
			setup: func(engine *docker.MockEngine) {
				engine.On("BuildImage", mock.Anything, mock.Anything, mock.Anything).Return(stream(
					`{"stream":"Step 1/2 : RUN pip install -r requirements.txt\n"}`,
					`{"errorDetail":{"message":"pip exited 1"},"error":"pip exited 1"}`,
				), nil)
			},
			wantErr: image.ErrBuildFailed,
			wantMsg: "pip exited 1",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			engine := docker.NewMockEngine(t)
			if testCase.setup != nil {
				testCase.setup(engine)
			}

			err := image.NewBuilder(engine, io.Discard).Build(context.Background(), v1alpha1.ImagesSpec{
				Context: buildContextDir(t),
				Images:  testCase.images,
			})

			require.ErrorIs(t, err, testCase.wantErr)

			if testCase.wantMsg != "" {
				assert.Contains(t, err.Error(), testCase.wantMsg)
				assert.Contains(t, err.Error(), "Step 1/2")
			}
		})
	}
}
