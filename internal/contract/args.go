package contract

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// convertArg turns a CLI string into the Go value abi.Pack expects for typ.
func convertArg(typ abi.Type, val string) (any, error) {
	val = strings.TrimSpace(val)

	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(val) {
			return nil, fmt.Errorf("invalid address %q", val)
		}
		return common.HexToAddress(val), nil

	case abi.UintTy:
		n, ok := new(big.Int).SetString(val, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid unsigned integer %q", val)
		}
		if n.BitLen() > typ.Size {
			return nil, fmt.Errorf("%s overflows uint%d", val, typ.Size)
		}
		switch typ.Size {
		case 8:
			return uint8(n.Uint64()), nil
		case 16:
			return uint16(n.Uint64()), nil
		case 32:
			return uint32(n.Uint64()), nil
		case 64:
			return n.Uint64(), nil
		}
		return n, nil

	case abi.IntTy:
		n, ok := new(big.Int).SetString(val, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		if n.BitLen() >= typ.Size {
			return nil, fmt.Errorf("%s overflows int%d", val, typ.Size)
		}
		switch typ.Size {
		case 8:
			return int8(n.Int64()), nil
		case 16:
			return int16(n.Int64()), nil
		case 32:
			return int32(n.Int64()), nil
		case 64:
			return n.Int64(), nil
		}
		return n, nil

	case abi.BoolTy:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid bool %q", val)
		}
		return b, nil

	case abi.StringTy:
		return val, nil
	}
	return nil, fmt.Errorf("unsupported argument type %s", typ.String())
}

// formatValues renders unpacked outputs as strings.
func formatValues(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case *big.Int:
			out[i] = x.String()
		case common.Address:
			out[i] = x.Hex()
		case string:
			out[i] = x
		case []byte:
			out[i] = "0x" + common.Bytes2Hex(x)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}
