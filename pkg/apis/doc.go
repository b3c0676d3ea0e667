// Package apis provides API type definitions for coderev configuration.
//
//   - environment: The Environment resource read from coderev.yaml
package apis
