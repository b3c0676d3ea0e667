package network

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/apparentlymart/go-cidr/cidr"
)

// ErrAddressSpaceExhausted is returned when the VPC cannot hold the requested subnets.
var ErrAddressSpaceExhausted = errors.New("VPC CIDR too small for requested subnets")

// Carve splits vpc into count consecutive subnets of the given prefix length.
func Carve(vpc netip.Prefix, bits, count int) ([]netip.Prefix, error) {
	vpc = vpc.Masked()

	if bits <= vpc.Bits() || bits > vpc.Addr().BitLen() {
		return nil, fmt.Errorf("%w: /%d subnets inside %s", ErrAddressSpaceExhausted, bits, vpc)
	}

	newBits := bits - vpc.Bits()
	if newBits < 63 && uint64(1)<<newBits < uint64(count) {
		return nil, fmt.Errorf("%w: %s holds %d /%d subnets, need %d",
			ErrAddressSpaceExhausted, vpc, uint64(1)<<newBits, bits, count)
	}

	_, base, err := net.ParseCIDR(vpc.String())
	if err != nil {
		return nil, fmt.Errorf("invalid VPC CIDR %s: %w", vpc, err)
	}

	subnets := make([]netip.Prefix, 0, count)

	for idx := range count {
		subnet, err := cidr.Subnet(base, newBits, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: subnet %d: %w", ErrAddressSpaceExhausted, idx, err)
		}

		prefix, err := netip.ParsePrefix(subnet.String())
		if err != nil {
			return nil, fmt.Errorf("%w: subnet %d: %w", ErrAddressSpaceExhausted, idx, err)
		}

		subnets = append(subnets, prefix)
	}

	return subnets, nil
}
