// Package docker wraps the Docker engine SDK behind the narrow Engine interface
// used to build images and side-load them into kind nodes.
package docker
