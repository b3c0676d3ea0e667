package tfjson

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrUnknownReference is returned when an expression names an undeclared object.
	ErrUnknownReference = errors.New("reference to undeclared object")
	// ErrInvalidDependsOn is returned when depends_on is not a list of addresses.
	ErrInvalidDependsOn = errors.New("invalid depends_on")
)

var (
	interpolation = regexp.MustCompile(`\$\{([^}]*)\}`)
	// root.name(.name)? not preceded by another traversal step or identifier character
	traversal = regexp.MustCompile(`(?:^|[^.\w])([a-z][a-z0-9_]*)\.([A-Za-z_][\w-]*)(?:\.([A-Za-z_][\w-]*))?`)
)

// rootsWithoutDeclaration are expression roots that do not name a declared object.
func rootsWithoutDeclaration() []string {
	return []string{"count", "each", "local", "module", "path", "self", "terraform"}
}

// Validate checks that every interpolated reference and every depends_on entry points at a
// declared resource, data source, or variable. All problems are reported together.
func (d *Document) Validate() error {
	declared := map[string]bool{}
	for _, address := range d.Addresses() {
		declared[address] = true
	}

	var errs []error

	check := func(owner string, body Block) {
		for _, expr := range collectStrings(body) {
			for _, ref := range references(expr) {
				if !d.resolves(ref, declared) {
					errs = append(errs, fmt.Errorf("%w: %s uses %s", ErrUnknownReference, owner, ref))
				}
			}
		}

		errs = append(errs, d.checkDependsOn(owner, body, declared)...)
	}

	for _, typ := range slices.Sorted(maps.Keys(d.Resource)) {
		for _, name := range slices.Sorted(maps.Keys(d.Resource[typ])) {
			check(typ+"."+name, d.Resource[typ][name])
		}
	}

	for _, typ := range slices.Sorted(maps.Keys(d.Data)) {
		for _, name := range slices.Sorted(maps.Keys(d.Data[typ])) {
			check("data."+typ+"."+name, d.Data[typ][name])
		}
	}

	for _, name := range slices.Sorted(maps.Keys(d.Output)) {
		check("output."+name, d.Output[name])
	}

	for _, name := range slices.Sorted(maps.Keys(d.Provider)) {
		check("provider."+name, d.Provider[name])
	}

	return errors.Join(errs...)
}

func (d *Document) resolves(ref string, declared map[string]bool) bool {
	root, rest, _ := strings.Cut(ref, ".")

	switch {
	case root == "var":
		_, ok := d.Variable[rest]

		return ok
	case slices.Contains(rootsWithoutDeclaration(), root):
		return true
	default:
		return declared[ref]
	}
}

func (d *Document) checkDependsOn(owner string, body Block, declared map[string]bool) []error {
	raw, ok := body["depends_on"]
	if !ok {
		return nil
	}

	entries, ok := raw.([]string)
	if !ok {
		return []error{fmt.Errorf("%w: %s must be a list of addresses", ErrInvalidDependsOn, owner)}
	}

	var errs []error

	for _, entry := range entries {
		if !declared[entry] {
			errs = append(errs, fmt.Errorf("%w: %s depends on %s", ErrUnknownReference, owner, entry))
		}
	}

	return errs
}

// references extracts object addresses from the interpolations in expr: type.name for
// resources, data.type.name for data sources, and var.name for variables.
func references(expr string) []string {
	var refs []string

	for _, inner := range interpolation.FindAllStringSubmatch(expr, -1) {
		for _, match := range traversal.FindAllStringSubmatch(inner[1], -1) {
			root, second, third := match[1], match[2], match[3]

			switch {
			case root == "data" && third != "":
				refs = append(refs, "data."+second+"."+third)
			case root == "data":
				refs = append(refs, "data."+second)
			default:
				refs = append(refs, root+"."+second)
			}
		}
	}

	return refs
}

// collectStrings walks a block and returns every string leaf outside depends_on.
func collectStrings(value any) []string {
	var out []string

	switch typed := value.(type) {
	case string:
		out = append(out, typed)
	case []string:
		out = append(out, typed...)
	case []any:
		for _, item := range typed {
			out = append(out, collectStrings(item)...)
		}
	case map[string]string:
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			out = append(out, typed[key])
		}
	case []Block:
		for _, item := range typed {
			out = append(out, collectStrings(item)...)
		}
	case Block:
		for _, key := range slices.Sorted(maps.Keys(typed)) {
			if key == "depends_on" {
				continue
			}

			out = append(out, collectStrings(typed[key])...)
		}
	}

	return out
}
