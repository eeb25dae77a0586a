package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tokendesk/internal/chain"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenAddr = "0x3Bc99db296a6317A4DDC3a9B31d315bb261d62bB"

type fakeBackend struct {
	callOut  []byte
	callErr  error
	sendErr  error
	waitErr  error
	receipt  *chain.TxReceipt
	lastTo   string
	lastFrom string
	lastData []byte
	waitDead bool
}

func (f *fakeBackend) ID() string { return "fake" }

func (f *fakeBackend) Call(_ context.Context, to string, data []byte) ([]byte, error) {
	f.lastTo, f.lastData = to, data
	return f.callOut, f.callErr
}

func (f *fakeBackend) Send(_ context.Context, from, to string, data []byte) (string, error) {
	f.lastFrom, f.lastTo, f.lastData = from, to, data
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return "0xhash", nil
}

func (f *fakeBackend) WaitMined(ctx context.Context, hash string) (*chain.TxReceipt, error) {
	if f.waitDead {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.receipt, f.waitErr
}

func bindTheodores(t *testing.T, b Backend, opts ...HandleOption) *Handle {
	t.Helper()
	d, err := Builtin("theodores")
	require.NoError(t, err)
	h, err := Bind(b, tokenAddr, d, opts...)
	require.NoError(t, err)
	return h
}

func packOutputs(t *testing.T, method string, values ...any) []byte {
	t.Helper()
	d, err := Builtin("theodores")
	require.NoError(t, err)
	out, err := d.ABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestBindRejectsBadInput(t *testing.T) {
	d, _ := Builtin("theodores")

	_, err := Bind(&fakeBackend{}, "0x123", d)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = Bind(&fakeBackend{}, tokenAddr, nil)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	_, err = Bind(nil, tokenAddr, d)
	assert.Error(t, err)
}

func TestBindIsScopedToProvider(t *testing.T) {
	h := bindTheodores(t, &fakeBackend{})
	assert.Equal(t, "fake", h.ProviderID())
	assert.Equal(t, tokenAddr, h.Address())
}

func TestCallDecodesString(t *testing.T) {
	b := &fakeBackend{callOut: packOutputs(t, "name", "Theodores")}
	h := bindTheodores(t, b)

	out, err := h.Call(context.Background(), "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"Theodores"}, out)
	assert.Equal(t, tokenAddr, b.lastTo)
	assert.Equal(t, []byte{0x06, 0xfd, 0xde, 0x03}, b.lastData)
}

func TestCallUint256AsDecimalString(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	b := &fakeBackend{callOut: packOutputs(t, "totalSupply", huge)}
	out, err := bindTheodores(t, b).Call(context.Background(), "totalSupply")
	require.NoError(t, err)
	assert.Equal(t, []string{huge.String()}, out)
}

func TestCallDecimals(t *testing.T) {
	b := &fakeBackend{callOut: packOutputs(t, "decimals", uint8(18))}
	out, err := bindTheodores(t, b).Call(context.Background(), "decimals")
	require.NoError(t, err)
	assert.Equal(t, []string{"18"}, out)
}

func TestCallEncodesAddressArgument(t *testing.T) {
	b := &fakeBackend{callOut: packOutputs(t, "balanceOf", big.NewInt(42))}
	out, err := bindTheodores(t, b).Call(context.Background(), "balanceOf", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, out)

	require.Len(t, b.lastData, 4+32)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266").Bytes(), b.lastData[16:])
}

func TestCallErrors(t *testing.T) {
	h := bindTheodores(t, &fakeBackend{callErr: errors.New("connection refused")})
	_, err := h.Call(context.Background(), "name")
	assert.ErrorIs(t, err, ErrCallFailed)

	_, err = h.Call(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = h.Call(context.Background(), "transfer", tokenAddr, "1")
	assert.ErrorContains(t, err, "not a read function")

	_, err = h.Call(context.Background(), "balanceOf")
	assert.ErrorContains(t, err, "expects 1 argument")
}

func TestCallEmptyReturnData(t *testing.T) {
	_, err := bindTheodores(t, &fakeBackend{callOut: nil}).Call(context.Background(), "name")
	assert.ErrorIs(t, err, ErrCallFailed)
}

func TestSendEncodesAndWaits(t *testing.T) {
	b := &fakeBackend{receipt: &chain.TxReceipt{Hash: "0xhash", Status: 1, BlockNumber: 9}}
	h := bindTheodores(t, b)

	r, err := h.Send(context.Background(), "0xfrom", "mint", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "1000")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), r.BlockNumber)
	assert.Equal(t, "0xfrom", b.lastFrom)

	d, _ := Builtin("theodores")
	args, err := d.ABI.Methods["mint"].Inputs.Unpack(b.lastData[4:])
	require.NoError(t, err)
	assert.Equal(t, "1000", args[1].(*big.Int).String())
}

func TestSendNoArgs(t *testing.T) {
	b := &fakeBackend{receipt: &chain.TxReceipt{Status: 1}}
	_, err := bindTheodores(t, b).Send(context.Background(), "0xfrom", "pause")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x84, 0x56, 0xcb, 0x59}, b.lastData)
}

func TestSendReverted(t *testing.T) {
	b := &fakeBackend{
		receipt: &chain.TxReceipt{Status: 0},
		waitErr: fmt.Errorf("%w (hash: 0xhash)", chain.ErrReverted),
	}
	r, err := bindTheodores(t, b).Send(context.Background(), "0xfrom", "burn", "5")
	require.ErrorIs(t, err, ErrReverted)
	require.NotNil(t, r)
	assert.Equal(t, uint64(0), r.Status)
}

func TestSendProviderRefusal(t *testing.T) {
	rejected := errors.New("user rejected the request")
	b := &fakeBackend{sendErr: rejected}
	_, err := bindTheodores(t, b).Send(context.Background(), "0xfrom", "burn", "5")
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, rejected)
}

func TestSendConfirmTimeout(t *testing.T) {
	b := &fakeBackend{waitDead: true}
	h := bindTheodores(t, b, WithConfirmTimeout(10*time.Millisecond))
	_, err := h.Send(context.Background(), "0xfrom", "burn", "5")
	assert.ErrorIs(t, err, ErrCallFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendRejectsReadMethod(t *testing.T) {
	_, err := bindTheodores(t, &fakeBackend{}).Send(context.Background(), "0xfrom", "name")
	assert.ErrorContains(t, err, "read function")
}

func TestConvertArg(t *testing.T) {
	u256, _ := abi.NewType("uint256", "", nil)
	u8, _ := abi.NewType("uint8", "", nil)
	addr, _ := abi.NewType("address", "", nil)
	boolean, _ := abi.NewType("bool", "", nil)
	str, _ := abi.NewType("string", "", nil)
	bytes32, _ := abi.NewType("bytes32", "", nil)

	v, err := convertArg(u256, "123")
	require.NoError(t, err)
	assert.Equal(t, "123", v.(*big.Int).String())

	v, err = convertArg(u8, "255")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)

	_, err = convertArg(u8, "256")
	assert.ErrorContains(t, err, "overflows")

	_, err = convertArg(u256, "-1")
	assert.Error(t, err)

	_, err = convertArg(u256, "1.5")
	assert.Error(t, err)

	v, err = convertArg(addr, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.NoError(t, err)
	assert.IsType(t, common.Address{}, v)

	_, err = convertArg(addr, "0xnothex")
	assert.Error(t, err)

	v, err = convertArg(boolean, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = convertArg(str, " hi ")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	_, err = convertArg(bytes32, "0x00")
	assert.ErrorContains(t, err, "unsupported")
}

func TestFormatValues(t *testing.T) {
	out := formatValues([]any{
		big.NewInt(7),
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		"x",
		uint8(18),
		true,
		[]byte{0xab},
	})
	assert.Equal(t, []string{"7", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "x", "18", "true", "0xab"}, out)
}
