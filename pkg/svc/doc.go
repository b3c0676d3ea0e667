// Package svc provides the service layer behind the coderev commands.
//
// Subpackages:
//   - deploy: Overlay rendering, validation, apply and rollout waiting
//   - image: Service image builds and loading into kind nodes
//   - infra: Terraform JSON rendering for the network and EKS templates
//   - ingress: ingress-nginx installation for the local cluster
//   - preflight: Tool and credential checks run before a command does work
//   - provisioner: kind cluster provisioning
//   - secrets: Kubernetes secret env files generated from .env
//   - status: Health summary of the deployed workloads
package svc
