// Package calldata encodes timelock call ids and setter payloads with the
// Ethereum ABI so ids match what a Compound style timelock would compute.
package calldata

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	addressType = mustType("address")
	uint256Type = mustType("uint256")
	boolType    = mustType("bool")
	stringType  = mustType("string")
	bytesType   = mustType("bytes")

	callIDArgs = abi.Arguments{
		{Type: addressType},
		{Type: uint256Type},
		{Type: stringType},
		{Type: bytesType},
		{Type: uint256Type},
	}
)

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}

	return typ
}

// CallID keccak256(abi.encode(target, value, signature, data, eta))
func CallID(target common.Address, value *uint256.Int, signature string, data []byte, eta int64) (common.Hash, error) {
	if eta < 0 {
		return common.Hash{}, errors.New("calldata: negative eta")
	}

	v := new(big.Int)
	if value != nil {
		v = value.ToBig()
	}

	if data == nil {
		data = []byte{}
	}

	packed, err := callIDArgs.Pack(target, v, signature, data, big.NewInt(eta))
	if err != nil {
		return common.Hash{}, fmt.Errorf("calldata: pack call id: %w", err)
	}

	return crypto.Keccak256Hash(packed), nil
}

// EncodeUint abi encoded uint256
func EncodeUint(v *uint256.Int) []byte {
	data, _ := abi.Arguments{{Type: uint256Type}}.Pack(v.ToBig())
	return data
}

// DecodeUint decodes a single abi encoded uint256
func DecodeUint(data []byte) (*uint256.Int, error) {
	values, err := abi.Arguments{{Type: uint256Type}}.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("calldata: decode uint256: %w", err)
	}

	b, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("calldata: decode uint256: unexpected type")
	}

	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.New("calldata: decode uint256: overflow")
	}

	return v, nil
}

// EncodeBool abi encoded bool
func EncodeBool(v bool) []byte {
	data, _ := abi.Arguments{{Type: boolType}}.Pack(v)
	return data
}

// DecodeBool decodes a single abi encoded bool
func DecodeBool(data []byte) (bool, error) {
	values, err := abi.Arguments{{Type: boolType}}.Unpack(data)
	if err != nil {
		return false, fmt.Errorf("calldata: decode bool: %w", err)
	}

	v, ok := values[0].(bool)
	if !ok {
		return false, errors.New("calldata: decode bool: unexpected type")
	}

	return v, nil
}

// ParamType returns the single parameter type of a setter signature,
// "setPaused(bool)" yields "bool"
func ParamType(signature string) (string, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return "", fmt.Errorf("calldata: malformed signature %q", signature)
	}

	param := signature[open+1 : len(signature)-1]
	if param == "" || strings.Contains(param, ",") {
		return "", fmt.Errorf("calldata: %q must take exactly one parameter", signature)
	}

	return param, nil
}

// Encode packs a textual argument for a single parameter setter signature
func Encode(signature, arg string) ([]byte, error) {
	typ, err := ParamType(signature)
	if err != nil {
		return nil, err
	}

	switch typ {
	case "uint256":
		v, err := uint256.FromDecimal(arg)
		if err != nil {
			return nil, fmt.Errorf("calldata: parse uint256 %q: %w", arg, err)
		}
		return EncodeUint(v), nil
	case "bool":
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return nil, fmt.Errorf("calldata: parse bool %q: %w", arg, err)
		}
		return EncodeBool(v), nil
	default:
		return nil, fmt.Errorf("calldata: unsupported parameter type %s", typ)
	}
}
