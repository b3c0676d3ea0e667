// Package notify writes the operator-facing output of every coderev command.
//
// It offers:
//   - [WriteMessage] and the typed helpers ([Successf], [Errorf], ...) for symbol-prefixed,
//     colored lines
//   - [Guidancef] for word-wrapped follow-up instructions
//   - [TaskGroup] for running a handful of tasks in parallel with one status line each
//   - [StageWriter] for separating workflow stages with a blank line
//
// Symbols: success (✔), error (✗), warning (⚠), info (ℹ), activity (►), generate (✚).
// Titles carry an emoji chosen by the caller.
package notify
