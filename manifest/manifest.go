// Package manifest reads deployment manifests describing which facets a
// registry should route, and turns them into cut batches.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/auraprotocol/diamond/diamond"
)

var (
	ErrUnknownReference = errors.New("unknown facet reference")
	ErrDuplicateFacet   = errors.New("duplicate facet name")
	ErrFormat           = errors.New("unsupported manifest format")
)

// Manifest is a deployment description. Facet addresses may be given
// directly or looked up by name in the network map.
type Manifest struct {
	Network    string     `yaml:"network" toml:"network"`
	Owner      string     `yaml:"owner" toml:"owner"`
	NetworkMap string     `yaml:"network_map" toml:"network_map"`
	Facets     []FacetDef `yaml:"facets" toml:"facets"`
	Init       *InitDef   `yaml:"init" toml:"init"`

	networks NetworkMap
}

// FacetDef is one cut in the manifest.
type FacetDef struct {
	Name      string   `yaml:"name" toml:"name"`
	Address   string   `yaml:"address" toml:"address"`
	Action    string   `yaml:"action" toml:"action"`
	Functions []string `yaml:"functions" toml:"functions"`
	Selectors []string `yaml:"selectors" toml:"selectors"`
	Endpoint  string   `yaml:"endpoint" toml:"endpoint"`
}

// InitDef is the optional init call. Calldata is raw hex; alternatively
// Function is a signature whose selector is followed by the Args hex.
type InitDef struct {
	Target   string `yaml:"target" toml:"target"`
	Calldata string `yaml:"calldata" toml:"calldata"`
	Function string `yaml:"function" toml:"function"`
	Args     string `yaml:"args" toml:"args"`
}

// Load reads a manifest; the format follows the file extension. A
// relative network_map path is resolved against the manifest directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	if m.NetworkMap != "" {
		nmPath := m.NetworkMap
		if !filepath.IsAbs(nmPath) {
			nmPath = filepath.Join(filepath.Dir(path), nmPath)
		}
		nm, err := LoadNetworkMap(nmPath)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		m.networks = nm
	}
	return m, nil
}

// Parse decodes a manifest. format is a file extension such as ".yaml"
// or ".toml". Unknown keys are rejected.
func Parse(data []byte, format string) (*Manifest, error) {
	m := &Manifest{}

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "toml":
		meta, err := toml.Decode(string(data), m)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrFormat, format)
	}

	return m, nil
}

// SetNetworkMap replaces the network map used to resolve names.
func (m *Manifest) SetNetworkMap(nm NetworkMap) {
	m.networks = nm
}

// OwnerAddress returns the configured owner, or the zero address.
func (m *Manifest) OwnerAddress() (diamond.Address, error) {
	if m.Owner == "" {
		return diamond.Address{}, nil
	}
	return m.resolve(m.Owner)
}

// Batch builds the cut batch the manifest describes.
func (m *Manifest) Batch() (diamond.Batch, error) {
	var batch diamond.Batch

	seen := make(map[string]bool, len(m.Facets))
	for i, f := range m.Facets {
		if f.Name != "" {
			if seen[f.Name] {
				return batch, fmt.Errorf("facet %d: %w %q", i, ErrDuplicateFacet, f.Name)
			}
			seen[f.Name] = true
		}

		cut, err := m.cut(f)
		if err != nil {
			return batch, fmt.Errorf("facet %d (%s): %w", i, f.label(), err)
		}
		batch.Cuts = append(batch.Cuts, cut)
	}

	call, err := m.initCall()
	if err != nil {
		return batch, fmt.Errorf("init: %w", err)
	}
	batch.Init = call

	return batch, nil
}

// Endpoints maps facet addresses to the endpoints configured for them.
func (m *Manifest) Endpoints() (map[diamond.Address]string, error) {
	out := map[diamond.Address]string{}
	for _, f := range m.Facets {
		if f.Endpoint == "" {
			continue
		}
		addr, err := m.facetAddress(f)
		if err != nil {
			return nil, fmt.Errorf("facet %s: %w", f.label(), err)
		}
		out[addr] = f.Endpoint
	}
	return out, nil
}

func (m *Manifest) cut(f FacetDef) (diamond.FacetCut, error) {
	action := diamond.Add
	if f.Action != "" {
		var err error
		action, err = diamond.FacetCutActionString(f.Action)
		if err != nil {
			return diamond.FacetCut{}, fmt.Errorf("action %q: %w", f.Action, err)
		}
	}

	cut := diamond.FacetCut{Action: action}

	// Remove cuts never carry a facet; the name only labels the entry.
	if action != diamond.Remove {
		addr, err := m.facetAddress(f)
		if err != nil {
			return cut, err
		}
		cut.Facet = addr
	}

	for _, sig := range f.Functions {
		cut.Selectors = append(cut.Selectors, diamond.SelectorFromSignature(sig))
	}
	for _, s := range f.Selectors {
		sel, err := diamond.ParseSelector(s)
		if err != nil {
			return cut, err
		}
		cut.Selectors = append(cut.Selectors, sel)
	}
	return cut, nil
}

func (m *Manifest) facetAddress(f FacetDef) (diamond.Address, error) {
	if f.Address != "" {
		return m.resolve(f.Address)
	}
	if f.Name == "" {
		return diamond.Address{}, errors.New("facet has neither name nor address")
	}
	return m.networks.Lookup(m.Network, f.Name)
}

// resolve accepts a hex address, the name of a manifest facet with an
// address, or a network map name.
func (m *Manifest) resolve(ref string) (diamond.Address, error) {
	if strings.HasPrefix(ref, "0x") || strings.HasPrefix(ref, "0X") {
		return diamond.ParseAddress(ref)
	}
	for _, f := range m.Facets {
		if f.Name == ref && f.Address != "" && f.Address != ref {
			return m.resolve(f.Address)
		}
	}
	return m.networks.Lookup(m.Network, ref)
}

func (m *Manifest) initCall() (*diamond.InitCall, error) {
	in := m.Init
	if in == nil || (in.Target == "" && in.Calldata == "" && in.Function == "") {
		return nil, nil
	}
	if in.Target == "" {
		return nil, errors.New("target is required")
	}
	if in.Calldata != "" && in.Function != "" {
		return nil, errors.New("calldata and function are exclusive")
	}
	if in.Args != "" && in.Function == "" {
		return nil, errors.New("args require function")
	}

	target, err := m.resolve(in.Target)
	if err != nil {
		return nil, err
	}

	var data diamond.Calldata
	switch {
	case in.Function != "":
		sel := diamond.SelectorFromSignature(in.Function)
		args, err := diamond.ParseCalldata(in.Args)
		if err != nil {
			return nil, fmt.Errorf("args: %w", err)
		}
		data = append(sel[:], args...)
	default:
		data, err = diamond.ParseCalldata(in.Calldata)
		if err != nil {
			return nil, fmt.Errorf("calldata: %w", err)
		}
	}

	if target.IsZero() && len(data) == 0 {
		return nil, nil
	}
	return &diamond.InitCall{Target: target, Calldata: data}, nil
}

func (f FacetDef) label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Address
}
