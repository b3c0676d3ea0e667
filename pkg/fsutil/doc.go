// Package fsutil provides utilities for filesystem operations.
//
// Key functionality:
//   - File writing: WriteFile, AppendLineIfMissing
//   - Path operations: ExpandHomePath
package fsutil

import "errors"

// ErrEmptyOutputPath is returned when a write targets an empty path.
var ErrEmptyOutputPath = errors.New("output path cannot be empty")

const (
	dirPermUserGroupRX = 0o750
	// FilePermUserRW restricts a file to its owner.
	FilePermUserRW = 0o600
	// FilePermShared is used for files meant to be committed, such as .gitignore.
	FilePermShared = 0o644
)
