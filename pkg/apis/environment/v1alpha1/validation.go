package v1alpha1

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"slices"

	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/util/validation"
)

var (
	versionPattern  = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	poolNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Validate checks the whole Environment and returns every problem found, joined.
func (e *Environment) Validate() error {
	var errs []error

	if e.APIVersion != APIVersion || e.Kind != Kind {
		errs = append(errs, fmt.Errorf("%w: got %q/%q, want %q/%q",
			ErrInvalidTypeMeta, e.APIVersion, e.Kind, APIVersion, Kind))
	}

	errs = append(errs, e.Spec.validateLocal()...)
	errs = append(errs, e.Spec.Infra.Network.Validate()...)
	errs = append(errs, e.Spec.Infra.Cluster.Validate()...)

	return errors.Join(errs...)
}

func (s *Spec) validateLocal() []error {
	var errs []error

	if msgs := validation.IsDNS1123Subdomain(s.Cluster.Name); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("%w %q: %v", ErrInvalidClusterName, s.Cluster.Name, msgs))
	}

	if msgs := validation.IsDNS1123Label(s.Namespace); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("%w %q: %v", ErrInvalidNamespace, s.Namespace, msgs))
	}

	if msgs := validation.IsValidPortNum(int(s.Cluster.HTTPPort)); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("%w: httpPort=%d", ErrInvalidPort, s.Cluster.HTTPPort))
	}

	if msgs := validation.IsValidPortNum(int(s.Cluster.HTTPSPort)); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("%w: httpsPort=%d", ErrInvalidPort, s.Cluster.HTTPSPort))
	}

	if len(s.Images.Images) == 0 {
		errs = append(errs, ErrNoImages)
	}

	for idx, image := range s.Images.Images {
		if image.Name == "" || image.Dockerfile == "" {
			errs = append(errs, fmt.Errorf("%w: images[%d] needs name and dockerfile", ErrInvalidImage, idx))
		}
	}

	for idx, rollout := range s.Deploy.Rollouts {
		if rollout.Name == "" || rollout.Timeout.Duration <= 0 {
			errs = append(errs, fmt.Errorf("%w: rollouts[%d]", ErrInvalidRollout, idx))
		}
	}

	if s.Ingress.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: ingress.timeout", ErrInvalidTimeout))
	}

	if s.Teardown.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("%w: teardown.timeout", ErrInvalidTimeout))
	}

	return errs
}

// Validate checks the network topology settings.
func (n *NetworkSpec) Validate() []error {
	var errs []error

	prefix, err := netip.ParsePrefix(n.CIDR)
	if err != nil || !prefix.Addr().Is4() {
		errs = append(errs, fmt.Errorf("%w %q", ErrInvalidCIDR, n.CIDR))
	}

	if len(n.AvailabilityZones) == 0 && n.ZoneCount < 1 {
		errs = append(errs, fmt.Errorf("%w: zoneCount must be at least 1", ErrInvalidZones))
	}

	if dupes := lo.FindDuplicates(n.AvailabilityZones); len(dupes) > 0 {
		errs = append(errs, fmt.Errorf("%w: duplicate zones %v", ErrInvalidZones, dupes))
	}

	if err == nil && (n.SubnetPrefix <= prefix.Bits() || n.SubnetPrefix > 28) {
		errs = append(errs, fmt.Errorf("%w: /%d inside /%d", ErrInvalidSubnetPrefix, n.SubnetPrefix, prefix.Bits()))
	}

	if !n.NATMode.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidNATMode, n.NATMode))
	}

	if n.FlowLogs.Enabled {
		if !slices.Contains(FlowLogRetentionDays(), n.FlowLogs.RetentionDays) {
			errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidRetention, n.FlowLogs.RetentionDays))
		}

		if !slices.Contains(FlowLogTrafficTypes(), n.FlowLogs.TrafficType) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidTrafficType, n.FlowLogs.TrafficType))
		}
	}

	return errs
}

// ZoneTotal returns the number of zones the network spans. Explicit zones win over
// ZoneCount, which only drives discovery.
func (n *NetworkSpec) ZoneTotal() int {
	if len(n.AvailabilityZones) > 0 {
		return len(n.AvailabilityZones)
	}

	return n.ZoneCount
}

// Validate checks the managed cluster settings.
func (c *ManagedClusterSpec) Validate() []error {
	var errs []error

	if !versionPattern.MatchString(c.Version) {
		errs = append(errs, fmt.Errorf("%w %q: want major.minor", ErrInvalidVersion, c.Version))
	}

	pool := c.NodePool

	switch {
	case pool.MinSize < 0:
		errs = append(errs, fmt.Errorf("%w: minSize %d below 0", ErrInvalidNodePool, pool.MinSize))
	case pool.MaxSize < 1:
		errs = append(errs, fmt.Errorf("%w: maxSize %d below 1", ErrInvalidNodePool, pool.MaxSize))
	case pool.MinSize > pool.DesiredSize || pool.DesiredSize > pool.MaxSize:
		errs = append(errs, fmt.Errorf("%w: want min <= desired <= max, got %d/%d/%d",
			ErrInvalidNodePool, pool.MinSize, pool.DesiredSize, pool.MaxSize))
	}

	if !poolNamePattern.MatchString(pool.Name) {
		errs = append(errs, fmt.Errorf("%w: name %q", ErrInvalidNodePool, pool.Name))
	}

	if len(pool.InstanceTypes) == 0 {
		errs = append(errs, fmt.Errorf("%w: no instance types", ErrInvalidNodePool))
	}

	return errs
}
