// Package cmd provides the command-line interface of coderev.
//
// The root command delegates to one package per command family:
//   - cluster: local kind cluster lifecycle (create, delete, list)
//   - secrets: derive the cluster secrets file from .env
//   - images: build the application images and load them into the cluster
//   - ingress: install the ingress-nginx controller
//   - deploy: render, apply, and await a kustomize overlay
//   - teardown: remove the namespace and optionally the cluster
//   - status: report cluster, deployment, and API health
//   - infra: render and apply the cloud network and managed cluster templates
package cmd
