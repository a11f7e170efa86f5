package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/auraprotocol/diamond/diamond"
)

// NetworkMap holds deployed addresses by network (chain id or name) and
// contract name, as written by the deployment scripts:
//
//	{"31337": {"DiamondLoupeFacet": "0x5FbDB2315678afecb367f032d93F642f64180aa3", "StartBlock": 12345}}
//
// Entries that are not addresses, like the start block, are kept as they are
// and only rejected when something refers to them.
type NetworkMap map[string]map[string]json.RawMessage

// LoadNetworkMap reads a JSON network map.
func LoadNetworkMap(path string) (NetworkMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("network map: %w", err)
	}
	nm := NetworkMap{}
	if err := json.Unmarshal(data, &nm); err != nil {
		return nil, fmt.Errorf("network map %s: %w", path, err)
	}
	return nm, nil
}

// Lookup returns the address recorded for name on network. It returns an
// error wrapping ErrUnknownReference when there is no entry, and a parse
// error when the entry is not an address.
func (nm NetworkMap) Lookup(network, name string) (diamond.Address, error) {
	raw, ok := nm[network][name]
	if !ok {
		return diamond.Address{}, fmt.Errorf("%w %q on network %q", ErrUnknownReference, name, network)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return diamond.Address{}, fmt.Errorf("network map %s/%s: not an address: %s", network, name, raw)
	}
	a, err := diamond.ParseAddress(s)
	if err != nil {
		return diamond.Address{}, fmt.Errorf("network map %s/%s: %w", network, name, err)
	}
	return a, nil
}

// Set records an address, creating the network entry when needed.
func (nm NetworkMap) Set(network, name string, addr diamond.Address) {
	if nm[network] == nil {
		nm[network] = map[string]json.RawMessage{}
	}
	nm[network][name] = json.RawMessage(`"` + addr.String() + `"`)
}
