package approval

import (
	"context"
	"math/big"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc20AllowanceABIJSON = `[
	{"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

const permit2AllowanceABIJSON = `[
	{"inputs":[{"name":"owner","type":"address"},{"name":"token","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"amount","type":"uint160"},{"name":"expiration","type":"uint48"},{"name":"nonce","type":"uint48"}],"stateMutability":"view","type":"function"}
]`

var erc20AllowanceABI abi.ABI
var permit2AllowanceABI abi.ABI

func init() {
	var err error
	erc20AllowanceABI, err = abi.JSON(strings.NewReader(erc20AllowanceABIJSON))
	if err != nil {
		panic(err)
	}
	permit2AllowanceABI, err = abi.JSON(strings.NewReader(permit2AllowanceABIJSON))
	if err != nil {
		panic(err)
	}
}

// erc20Allowance reads the standard ERC-20 allowance(owner, spender),
// following the same abi.Pack + CallContract technique as
// balances.USDCBalance.
func erc20Allowance(ctx context.Context, rpc *ethclient.Client, token, owner, spender common.Address) (*big.Int, error) {
	data, err := erc20AllowanceABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	output, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	if len(output) < 32 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(output), nil
}

type permit2Allowance struct {
	Amount     *big.Int
	Expiration int64
	Nonce      uint64
}

// permit2ContractAllowance reads the Permit2 contract's
// allowance(owner, token, spender) -> (amount, expiration, nonce).
func permit2ContractAllowance(ctx context.Context, rpc *ethclient.Client, permit2Addr, token, owner, spender common.Address) (permit2Allowance, error) {
	data, err := permit2AllowanceABI.Pack("allowance", owner, token, spender)
	if err != nil {
		return permit2Allowance{}, err
	}
	output, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &permit2Addr, Data: data}, nil)
	if err != nil {
		return permit2Allowance{}, err
	}

	out, err := permit2AllowanceABI.Unpack("allowance", output)
	if err != nil {
		return permit2Allowance{}, err
	}
	amount := out[0].(*big.Int)
	expiration := out[1].(*big.Int)
	nonce := out[2].(*big.Int)

	return permit2Allowance{
		Amount:     amount,
		Expiration: expiration.Int64(),
		Nonce:      nonce.Uint64(),
	}, nil
}
