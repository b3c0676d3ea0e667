// Package k8s builds Kubernetes clients for the local cluster and holds the cluster
// operations shared by the ingress, deploy, teardown, and status commands: manifest decoding
// and apply, and namespace removal.
//
// For readiness polling, see the [readiness] sub-package.
package k8s
