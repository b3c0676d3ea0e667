package v1alpha1

import "errors"

// ErrInvalidNATMode is returned when a NAT mode other than single or per-az is configured.
var ErrInvalidNATMode = errors.New("invalid NAT mode")

// ErrInvalidTypeMeta is returned when apiVersion or kind do not identify an Environment.
var ErrInvalidTypeMeta = errors.New("invalid apiVersion or kind")

// ErrInvalidClusterName is returned when the kind cluster name is not DNS-1123 compliant.
var ErrInvalidClusterName = errors.New("invalid cluster name")

// ErrInvalidNamespace is returned when the namespace is not a DNS-1123 label.
var ErrInvalidNamespace = errors.New("invalid namespace")

// ErrInvalidPort is returned when a host port is outside 1-65535.
var ErrInvalidPort = errors.New("invalid port")

// ErrNoImages is returned when no images are configured.
var ErrNoImages = errors.New("no images configured")

// ErrInvalidImage is returned when an image lacks a name or Dockerfile.
var ErrInvalidImage = errors.New("invalid image")

// ErrInvalidRollout is returned when a rollout lacks a name or a positive timeout.
var ErrInvalidRollout = errors.New("invalid rollout")

// ErrInvalidTimeout is returned when a timeout is not positive.
var ErrInvalidTimeout = errors.New("timeout must be positive")

// ErrInvalidCIDR is returned when the VPC CIDR cannot be parsed.
var ErrInvalidCIDR = errors.New("invalid CIDR")

// ErrInvalidZones is returned when zone settings are inconsistent.
var ErrInvalidZones = errors.New("invalid availability zones")

// ErrInvalidSubnetPrefix is returned when the subnet prefix is not longer than the VPC prefix.
var ErrInvalidSubnetPrefix = errors.New("invalid subnet prefix")

// ErrInvalidRetention is returned when the flow log retention is not an accepted value.
var ErrInvalidRetention = errors.New("invalid flow log retention")

// ErrInvalidTrafficType is returned when the flow log traffic type is unknown.
var ErrInvalidTrafficType = errors.New("invalid flow log traffic type")

// ErrInvalidVersion is returned when the cluster version is not major.minor.
var ErrInvalidVersion = errors.New("invalid cluster version")

// ErrInvalidNodePool is returned when node pool sizes are inconsistent.
var ErrInvalidNodePool = errors.New("invalid node pool")
