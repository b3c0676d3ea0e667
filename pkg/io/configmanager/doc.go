// Package configmanager loads the coderev Environment from defaults, coderev.yaml, environment
// variables, and command flags, in increasing order of precedence.
package configmanager
