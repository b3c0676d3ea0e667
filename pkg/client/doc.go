// Package client wraps the libraries and binaries coderev talks to.
//
//   - aws: EC2 and STS lookups used by infra rendering and preflight
//   - docker: Docker engine builds, image export and node exec
//   - kubeconform: Manifest validation against Kubernetes schemas
//   - kustomize: In-process overlay rendering
//   - netretry: Retry policy for transient network errors
//   - terraform: terraform init, plan, apply and destroy
package client
