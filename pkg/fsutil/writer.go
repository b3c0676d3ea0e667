package fsutil

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes content to path with perm, creating parent directories. An
// existing file is truncated and its mode reset to perm.
func WriteFile(path string, content []byte, perm os.FileMode) error {
	if path == "" {
		return ErrEmptyOutputPath
	}

	path = filepath.Clean(path)

	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, dirPermUserGroupRX)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	err = os.WriteFile(path, content, perm)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	// os.WriteFile keeps the mode of a file that already exists
	err = os.Chmod(path, perm)
	if err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}

	return nil
}

// AppendLineIfMissing appends line to the file at path unless an identical line (ignoring
// surrounding whitespace) is already present. The file is created when absent. It reports
// whether the file changed.
func AppendLineIfMissing(path, line string) (bool, error) {
	if path == "" {
		return false, ErrEmptyOutputPath
	}

	existing, err := os.ReadFile(path) //nolint:gosec // caller-chosen path
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	want := strings.TrimSpace(line)

	scanner := bufio.NewScanner(bytes.NewReader(existing))
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == want {
			return false, nil
		}
	}

	var buf bytes.Buffer

	buf.Write(existing)

	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}

	buf.WriteString(want + "\n")

	perm := os.FileMode(FilePermShared)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	err = WriteFile(path, buf.Bytes(), perm)
	if err != nil {
		return false, err
	}

	return true, nil
}
