package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/kustomize/api/konfig"
	"sigs.k8s.io/kustomize/api/types"
	"sigs.k8s.io/yaml"
)

var (
	// ErrOverlayNotFound is returned when the overlay directory has no kustomization.
	ErrOverlayNotFound = errors.New("overlay not found")
	// ErrGeneratorInputMissing is returned when a secretGenerator source file is absent.
	ErrGeneratorInputMissing = errors.New("secret generator input missing")
)

// CheckOverlay verifies that dir holds a kustomization and that every file its
// secretGenerators read exists.
func CheckOverlay(dir string) error {
	kustomization, err := readKustomization(dir)
	if err != nil {
		return err
	}

	for _, input := range generatorInputs(kustomization) {
		path := filepath.Join(dir, input)

		_, statErr := os.Stat(path)
		if errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrGeneratorInputMissing, path)
		}

		if statErr != nil {
			return fmt.Errorf("failed to stat %s: %w", path, statErr)
		}
	}

	return nil
}

func readKustomization(dir string) (*types.Kustomization, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrOverlayNotFound, dir)
	}

	for _, name := range konfig.RecognizedKustomizationFileNames() {
		data, readErr := os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // overlay path from config
		if errors.Is(readErr, os.ErrNotExist) {
			continue
		}

		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, readErr)
		}

		var kustomization types.Kustomization

		err = yaml.Unmarshal(data, &kustomization)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s in %s: %w", name, dir, err)
		}

		return &kustomization, nil
	}

	return nil, fmt.Errorf("%w: no kustomization file in %s", ErrOverlayNotFound, dir)
}

// generatorInputs lists the local files read by secretGenerators. File sources may be
// written as key=path.
func generatorInputs(kustomization *types.Kustomization) []string {
	var inputs []string

	for _, generator := range kustomization.SecretGenerator {
		inputs = append(inputs, generator.EnvSources...)

		for _, source := range generator.FileSources {
			if _, path, found := strings.Cut(source, "="); found {
				source = path
			}

			inputs = append(inputs, source)
		}
	}

	return inputs
}
