// Package v1alpha1 contains the coderev.dev/v1alpha1 Environment type that configures every
// coderev command: the local kind cluster, secrets, images, ingress, deploy, teardown, and the
// cloud infrastructure templates.
package v1alpha1
