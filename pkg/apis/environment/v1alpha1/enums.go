package v1alpha1

import (
	"fmt"
	"slices"
	"strings"
)

// NATMode selects how many NAT gateways the network declares.
type NATMode string

const (
	// NATModeSingle declares one NAT gateway in the first public subnet.
	NATModeSingle NATMode = "single"
	// NATModePerAZ declares one NAT gateway in every public subnet.
	NATModePerAZ NATMode = "per-az"
)

// ValidNATModes returns all supported NAT modes.
func ValidNATModes() []NATMode {
	return []NATMode{NATModeSingle, NATModePerAZ}
}

// Set implements pflag.Value.
func (m *NATMode) Set(value string) error {
	for _, mode := range ValidNATModes() {
		if strings.EqualFold(value, string(mode)) {
			*m = mode

			return nil
		}
	}

	return fmt.Errorf("%w: %s (valid options: %s, %s)", ErrInvalidNATMode, value, NATModeSingle, NATModePerAZ)
}

// IsValid reports whether the mode is supported.
func (m *NATMode) IsValid() bool {
	return slices.Contains(ValidNATModes(), *m)
}

// String implements pflag.Value.
func (m *NATMode) String() string {
	return string(*m)
}

// Type implements pflag.Value.
func (m *NATMode) Type() string {
	return "NATMode"
}

// FlowLogRetentionDays returns the retention values the log service accepts.
func FlowLogRetentionDays() []int {
	return []int{1, 3, 5, 7, 14, 30, 60, 90, 120, 150, 180, 365, 400, 545, 731, 1827, 3653}
}

// FlowLogTrafficTypes returns the accepted flow log traffic types.
func FlowLogTrafficTypes() []string {
	return []string{"ACCEPT", "REJECT", "ALL"}
}
