package execution

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/swaprouter/gateway/domain"
)

func sampleRequest() domain.UniversalSwapRequest {
	return domain.UniversalSwapRequest{
		Source:      domain.ChainRef{ChainID: 1, Ecosystem: domain.EcosystemEVM},
		Destination: domain.ChainRef{ChainID: 1, Ecosystem: domain.EcosystemEVM},
		SellToken:   domain.NativeTokenSentinels[0],
		BuyToken:    "0x1111111111111111111111111111111111111111",
		SellAmount:  domain.MustParseAmount("1000000000000000000"),
		Taker:       "0x2222222222222222222222222222222222222222",
	}
}

func TestValidateRejectsSameToken(t *testing.T) {
	req := sampleRequest()
	req.BuyToken = req.SellToken
	require.Error(t, validate(req))
}

func TestValidateRejectsZeroAmount(t *testing.T) {
	req := sampleRequest()
	req.SellAmount = domain.NewAmount(big.NewInt(0))
	require.Error(t, validate(req))
}

func TestValidateRejectsMissingTaker(t *testing.T) {
	req := sampleRequest()
	req.Taker = ""
	require.Error(t, validate(req))
}

func TestValidateAccepts(t *testing.T) {
	require.NoError(t, validate(sampleRequest()))
}

func TestIsNativeRecognizesBothSentinels(t *testing.T) {
	require.True(t, isNative(domain.NativeTokenSentinels[0]))
	require.True(t, isNative(domain.NativeTokenSentinels[1]))
	require.False(t, isNative("0x1111111111111111111111111111111111111111"))
}

func TestRequestHashIsDeterministic(t *testing.T) {
	a := requestHash(sampleRequest())
	b := requestHash(sampleRequest())
	require.Equal(t, a, b)

	other := sampleRequest()
	other.SellAmount = domain.MustParseAmount("2000000000000000000")
	require.NotEqual(t, a, requestHash(other))
}

func TestParseReceivedAmountFindsTransferLog(t *testing.T) {
	token := common.HexToAddress("0x1111111111111111111111111111111111111111")
	recipient := common.HexToAddress("0x2222222222222222222222222222222222222222")
	amount := big.NewInt(42000000)

	data := make([]byte, 32)
	amount.FillBytes(data)

	receipt := &types.Receipt{
		Logs: []*types.Log{
			{
				Address: token,
				Topics: []common.Hash{
					transferEventSig,
					common.BytesToHash(common.HexToAddress("0x3333333333333333333333333333333333333333").Bytes()),
					common.BytesToHash(recipient.Bytes()),
				},
				Data: data,
			},
		},
	}

	fallback := domain.MustParseAmount("1")
	got := parseReceivedAmount(receipt, token.Hex(), recipient.Hex(), fallback)
	require.Equal(t, amount.String(), got.String())
}

func TestParseReceivedAmountFallsBackWhenNoMatch(t *testing.T) {
	fallback := domain.MustParseAmount("999")
	got := parseReceivedAmount(&types.Receipt{}, "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", fallback)
	require.Equal(t, fallback.String(), got.String())
}

func TestHexDecodeStripsPrefix(t *testing.T) {
	b, err := hexDecode("0xdeadbeef")
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, b)
}

func TestHexDecodeEmpty(t *testing.T) {
	b, err := hexDecode("")
	require.NoError(t, err)
	require.Nil(t, b)
}
