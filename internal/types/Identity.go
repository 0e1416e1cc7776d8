/*

This file contains the identifier types shared by every contract: addresses, contract ids, asset ids
and the Identity union used for callers, owners and authorized strategies.

*/

package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHex      = errors.New("identifier must be 32 bytes of hex")
	ErrInvalidIdentity = errors.New("identity is invalid")
)

// Address is a wallet address.
type Address [32]byte

// ContractID identifies a deployed contract.
type ContractID [32]byte

// AssetID identifies a fungible asset in the ledger.
type AssetID [32]byte

// BaseAssetID is the chain's native asset, the unit of deposit and withdrawal accounting.
var BaseAssetID = AssetID{}

func (a Address) String() string    { return encodeHex32(a) }
func (c ContractID) String() string { return encodeHex32(c) }
func (a AssetID) String() string    { return encodeHex32(a) }

func (a Address) MarshalText() ([]byte, error)    { return []byte(a.String()), nil }
func (c ContractID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (a AssetID) MarshalText() ([]byte, error)    { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(b []byte) error {
	v, err := decodeHex32(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (c *ContractID) UnmarshalText(b []byte) error {
	v, err := decodeHex32(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (a *AssetID) UnmarshalText(b []byte) error {
	v, err := decodeHex32(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAddress parses a 0x-prefixed (or bare) hex address.
func ParseAddress(s string) (Address, error) {
	v, err := decodeHex32(s)
	return Address(v), err
}

// ParseContractID parses a 0x-prefixed (or bare) hex contract id.
func ParseContractID(s string) (ContractID, error) {
	v, err := decodeHex32(s)
	return ContractID(v), err
}

// ParseAssetID parses a 0x-prefixed (or bare) hex asset id.
func ParseAssetID(s string) (AssetID, error) {
	v, err := decodeHex32(s)
	return AssetID(v), err
}

func encodeHex32(b [32]byte) string {
	return "0x" + hex.EncodeToString(b[:])
}

func decodeHex32(s string) ([32]byte, error) {
	var out [32]byte
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(raw) != len(out) {
		return out, fmt.Errorf("%w: got %d bytes", ErrInvalidHex, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// IdentityKind tags the variant held by an Identity.
type IdentityKind uint8

const (
	IdentityNone IdentityKind = iota
	IdentityAddress
	IdentityContract
)

// Identity is either a wallet address or a contract id. Two identities are equal only when
// both the kind and the value match, so it can be compared with ==.
type Identity struct {
	Kind  IdentityKind
	Value [32]byte
}

// AddressIdentity wraps a wallet address.
func AddressIdentity(a Address) Identity {
	return Identity{Kind: IdentityAddress, Value: a}
}

// ContractIdentity wraps a contract id.
func ContractIdentity(c ContractID) Identity {
	return Identity{Kind: IdentityContract, Value: c}
}

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i.Kind == IdentityNone }

// AsAddress returns the wallet address if the identity holds one.
func (i Identity) AsAddress() (Address, bool) {
	if i.Kind != IdentityAddress {
		return Address{}, false
	}
	return Address(i.Value), true
}

// AsContract returns the contract id if the identity holds one.
func (i Identity) AsContract() (ContractID, bool) {
	if i.Kind != IdentityContract {
		return ContractID{}, false
	}
	return ContractID(i.Value), true
}

func (i Identity) String() string {
	switch i.Kind {
	case IdentityAddress:
		return "Address(" + encodeHex32(i.Value) + ")"
	case IdentityContract:
		return "ContractId(" + encodeHex32(i.Value) + ")"
	default:
		return "None"
	}
}

// ParseIdentity accepts "address:0x…", "contract:0x…" or a bare hex string (treated as an address).
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	prefix, rest, found := strings.Cut(s, ":")
	if !found {
		a, err := ParseAddress(s)
		if err != nil {
			return Identity{}, err
		}
		return AddressIdentity(a), nil
	}
	switch strings.ToLower(prefix) {
	case "address":
		a, err := ParseAddress(rest)
		if err != nil {
			return Identity{}, err
		}
		return AddressIdentity(a), nil
	case "contract", "contractid":
		c, err := ParseContractID(rest)
		if err != nil {
			return Identity{}, err
		}
		return ContractIdentity(c), nil
	default:
		return Identity{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentity, prefix)
	}
}

type identityJSON struct {
	Address    *Address    `json:"Address,omitempty"`
	ContractID *ContractID `json:"ContractId,omitempty"`
}

// MarshalJSON encodes the identity as {"Address":"0x…"} or {"ContractId":"0x…"}; an unset identity is null.
func (i Identity) MarshalJSON() ([]byte, error) {
	switch i.Kind {
	case IdentityAddress:
		a := Address(i.Value)
		return json.Marshal(identityJSON{Address: &a})
	case IdentityContract:
		c := ContractID(i.Value)
		return json.Marshal(identityJSON{ContractID: &c})
	default:
		return []byte("null"), nil
	}
}

func (i *Identity) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*i = Identity{}
		return nil
	}
	var raw identityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	switch {
	case raw.Address != nil && raw.ContractID != nil:
		return fmt.Errorf("%w: both Address and ContractId set", ErrInvalidIdentity)
	case raw.Address != nil:
		*i = AddressIdentity(*raw.Address)
	case raw.ContractID != nil:
		*i = ContractIdentity(*raw.ContractID)
	default:
		return fmt.Errorf("%w: neither Address nor ContractId set", ErrInvalidIdentity)
	}
	return nil
}
