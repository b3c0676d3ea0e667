// Package tfjson models Terraform configuration in its JSON syntax.
//
// A Document holds the top-level blocks of one *.tf.json file. Rendering goes through
// encoding/json, which orders map keys, so equal documents produce identical bytes.
package tfjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Block is the body of a Terraform block in JSON syntax.
type Block = map[string]any

// ErrDuplicateAddress is returned when two declarations share an address.
var ErrDuplicateAddress = errors.New("duplicate address")

// ErrConflictingBlock is returned when merged documents disagree on a singleton block.
var ErrConflictingBlock = errors.New("conflicting block")

// Ref is the address of a resource or data source, e.g. aws_vpc.this or data.tls_certificate.oidc.
type Ref string

// Attr returns an interpolation of an attribute of the referenced object.
func (r Ref) Attr(path string) string {
	return "${" + string(r) + "." + path + "}"
}

// ID is shorthand for Attr("id").
func (r Ref) ID() string { return r.Attr("id") }

// Address returns the plain address, as used in depends_on.
func (r Ref) Address() string { return string(r) }

// Var returns an interpolation of an input variable.
func Var(name string) string { return "${var." + name + "}" }

// Document is one Terraform JSON configuration file.
type Document struct {
	Terraform Block
	Provider  map[string]Block
	Variable  map[string]Block
	Data      map[string]map[string]Block
	Resource  map[string]map[string]Block
	Output    map[string]Block
}

// New returns an empty document.
func New() *Document {
	return &Document{
		Provider: map[string]Block{},
		Variable: map[string]Block{},
		Data:     map[string]map[string]Block{},
		Resource: map[string]map[string]Block{},
		Output:   map[string]Block{},
	}
}

// RequireProvider adds an entry to terraform.required_providers.
func (d *Document) RequireProvider(name, source, version string) {
	if d.Terraform == nil {
		d.Terraform = Block{}
	}

	required, _ := d.Terraform["required_providers"].(Block)
	if required == nil {
		required = Block{}
		d.Terraform["required_providers"] = required
	}

	required[name] = Block{"source": source, "version": version}
}

// RequireVersion sets terraform.required_version.
func (d *Document) RequireVersion(constraint string) {
	if d.Terraform == nil {
		d.Terraform = Block{}
	}

	d.Terraform["required_version"] = constraint
}

// SetProvider sets the configuration of a provider.
func (d *Document) SetProvider(name string, body Block) {
	d.Provider[name] = body
}

// AddVariable declares an input variable.
func (d *Document) AddVariable(name string, body Block) {
	d.Variable[name] = body
}

// AddResource declares a resource and returns its address. A second declaration of the
// same address replaces the first; Merge is where duplicates are rejected.
func (d *Document) AddResource(typ, name string, body Block) Ref {
	if d.Resource[typ] == nil {
		d.Resource[typ] = map[string]Block{}
	}

	d.Resource[typ][name] = body

	return Ref(typ + "." + name)
}

// AddData declares a data source and returns its address.
func (d *Document) AddData(typ, name string, body Block) Ref {
	if d.Data[typ] == nil {
		d.Data[typ] = map[string]Block{}
	}

	d.Data[typ][name] = body

	return Ref("data." + typ + "." + name)
}

// AddOutput declares an output value.
func (d *Document) AddOutput(name, description string, value any) {
	d.Output[name] = Block{"description": description, "value": value}
}

// Addresses lists every declared resource and data source address, sorted.
func (d *Document) Addresses() []string {
	var addresses []string

	for typ, byName := range d.Resource {
		for name := range byName {
			addresses = append(addresses, typ+"."+name)
		}
	}

	for typ, byName := range d.Data {
		for name := range byName {
			addresses = append(addresses, "data."+typ+"."+name)
		}
	}

	slices.Sort(addresses)

	return addresses
}

// MarshalJSON emits only the non-empty top-level blocks.
func (d *Document) MarshalJSON() ([]byte, error) {
	top := map[string]any{}

	if len(d.Terraform) > 0 {
		top["terraform"] = d.Terraform
	}

	setIf := func(key string, empty bool, value any) {
		if !empty {
			top[key] = value
		}
	}

	setIf("provider", len(d.Provider) == 0, d.Provider)
	setIf("variable", len(d.Variable) == 0, d.Variable)
	setIf("data", len(d.Data) == 0, d.Data)
	setIf("resource", len(d.Resource) == 0, d.Resource)
	setIf("output", len(d.Output) == 0, d.Output)

	data, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("marshal terraform document: %w", err)
	}

	return data, nil
}

// Render returns the indented JSON of the document with a trailing newline.
func (d *Document) Render() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render terraform document: %w", err)
	}

	return append(data, '\n'), nil
}

// Merge combines documents into a new one. Resources, data sources, variables, and
// outputs must be unique across inputs; provider and terraform settings may repeat only
// when identical.
func Merge(docs ...*Document) (*Document, error) {
	merged := New()

	for _, doc := range docs {
		err := mergeSingletons(merged, doc)
		if err != nil {
			return nil, err
		}

		err = mergeNested("resource", merged.Resource, doc.Resource, "")
		if err != nil {
			return nil, err
		}

		err = mergeNested("data", merged.Data, doc.Data, "data.")
		if err != nil {
			return nil, err
		}

		err = mergeFlat("variable", merged.Variable, doc.Variable)
		if err != nil {
			return nil, err
		}

		err = mergeFlat("output", merged.Output, doc.Output)
		if err != nil {
			return nil, err
		}
	}

	return merged, nil
}

func mergeSingletons(into, from *Document) error {
	for key, value := range from.Terraform {
		if into.Terraform == nil {
			into.Terraform = Block{}
		}

		existing, ok := into.Terraform[key]
		if ok && !reflect.DeepEqual(existing, value) {
			return fmt.Errorf("%w: terraform.%s", ErrConflictingBlock, key)
		}

		into.Terraform[key] = value
	}

	for name, body := range from.Provider {
		existing, ok := into.Provider[name]
		if ok && !reflect.DeepEqual(existing, body) {
			return fmt.Errorf("%w: provider.%s", ErrConflictingBlock, name)
		}

		into.Provider[name] = body
	}

	return nil
}

func mergeNested(kind string, into, from map[string]map[string]Block, prefix string) error {
	for _, typ := range slices.Sorted(maps.Keys(from)) {
		if into[typ] == nil {
			into[typ] = map[string]Block{}
		}

		for _, name := range slices.Sorted(maps.Keys(from[typ])) {
			if _, ok := into[typ][name]; ok {
				return fmt.Errorf("%w: %s %s%s.%s", ErrDuplicateAddress, kind, prefix, typ, name)
			}

			into[typ][name] = from[typ][name]
		}
	}

	return nil
}

func mergeFlat(kind string, into, from map[string]Block) error {
	for _, name := range slices.Sorted(maps.Keys(from)) {
		if _, ok := into[name]; ok {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateAddress, kind, name)
		}

		into[name] = from[name]
	}

	return nil
}
