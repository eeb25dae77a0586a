package contract

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidDescriptor is returned for an unknown, unparsable or incomplete
// interface descriptor.
var ErrInvalidDescriptor = errors.New("invalid contract descriptor")

// ABIEntry is one ABI entry (function, event, etc.).
type ABIEntry struct {
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Inputs          []ABIParam `json:"inputs"`
	Outputs         []ABIParam `json:"outputs"`
	StateMutability string     `json:"stateMutability"`
}

// ABIParam is a parameter in an ABI entry.
type ABIParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Descriptor is a parsed contract interface.
type Descriptor struct {
	ID   string
	Name string
	ABI  abi.ABI
}

// Method describes one function of a descriptor for listings.
type Method struct {
	Signature string
	Selector  string
	Read      bool
}

// BuiltinKind is an interface descriptor compiled into the binary. Built-ins
// register themselves via init() in their own <name>_abi.go file.
type BuiltinKind struct {
	ID          string
	Name        string
	Description string
	ABI         []ABIEntry
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in descriptor to the registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Builtin parses the built-in descriptor registered under id.
func Builtin(id string) (*Descriptor, error) {
	b, ok := builtinRegistry[id]
	if !ok {
		return nil, fmt.Errorf("%w: no built-in descriptor %q", ErrInvalidDescriptor, id)
	}
	data, err := json.Marshal(b.ABI)
	if err != nil {
		return nil, err
	}
	d, err := ParseDescriptor(id, data)
	if err != nil {
		return nil, err
	}
	d.Name = b.Name
	return d, nil
}

// LoadDescriptorFile loads a descriptor from a file that is either a raw ABI
// JSON array or a Hardhat/Foundry artifact with an "abi" key.
func LoadDescriptorFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ABI file: %w", err)
	}
	return ParseDescriptor(path, data)
}

// ParseDescriptor parses raw ABI JSON or an artifact object.
func ParseDescriptor(id string, data []byte) (*Descriptor, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidDescriptor, id)
	}
	if data[0] == '{' {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil || len(artifact.ABI) == 0 || artifact.ABI[0] != '[' {
			return nil, fmt.Errorf("%w: %s is a JSON object without an \"abi\" array", ErrInvalidDescriptor, id)
		}
		data = artifact.ABI
	}

	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDescriptor, id, err)
	}
	if len(parsed.Methods) == 0 {
		return nil, fmt.Errorf("%w: %s has no functions", ErrInvalidDescriptor, id)
	}
	return &Descriptor{ID: id, Name: id, ABI: parsed}, nil
}

// RequireMethods fails unless every named function is present.
func (d *Descriptor) RequireMethods(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := d.ABI.Methods[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrInvalidDescriptor, d.ID, strings.Join(missing, ", "))
	}
	return nil
}

// Methods lists the descriptor's functions sorted by name.
func (d *Descriptor) Methods() []Method {
	out := make([]Method, 0, len(d.ABI.Methods))
	for _, m := range d.ABI.Methods {
		out = append(out, Method{
			Signature: m.Sig,
			Selector:  Selector(m.Sig),
			Read:      m.IsConstant(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Selector computes the 4-byte selector of a canonical signature such as
// "transfer(address,uint256)".
func Selector(sig string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}
