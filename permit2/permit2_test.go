package permit2

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"github.com/swaprouter/gateway/domain"
)

func samplePermit2Bundle() domain.Permit2EIP712 {
	return domain.Permit2EIP712{
		Types: map[string]interface{}{
			"PermitTransferFrom": []interface{}{
				map[string]interface{}{"name": "permitted", "type": "TokenPermissions"},
				map[string]interface{}{"name": "spender", "type": "address"},
				map[string]interface{}{"name": "nonce", "type": "uint256"},
				map[string]interface{}{"name": "deadline", "type": "uint256"},
			},
			"TokenPermissions": []interface{}{
				map[string]interface{}{"name": "token", "type": "address"},
				map[string]interface{}{"name": "amount", "type": "uint256"},
			},
		},
		Domain: map[string]interface{}{
			"name":              "Permit2",
			"chainId":           float64(1),
			"verifyingContract": ContractAddress,
		},
		PrimaryType: "PermitTransferFrom",
		Message: map[string]interface{}{
			"permitted": map[string]interface{}{
				"token":  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
				"amount": "1000000",
			},
			"spender":  "0xDef1C0ded9bec7F1a1670819833240f027b25EfF",
			"nonce":    "0",
			"deadline": "1893456000",
		},
	}
}

// TestSignRoundTripsAgainstSignerAddress proves the Permit2 signature
// round-trip law: a signature produced for (domain, types, message)
// verifies, via Ecrecover over the same digest, against the address
// derived from the signing private key.
func TestSignRoundTripsAgainstSignerAddress(t *testing.T) {
	privateKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	wantAddr := crypto.PubkeyToAddress(privateKey.PublicKey)

	bundle := samplePermit2Bundle()

	sigHex, err := Sign(bundle, privateKey)
	require.NoError(t, err)
	require.True(t, len(sigHex) > 2 && sigHex[:2] == "0x")

	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	require.NoError(t, err)
	require.Len(t, sig, 65)

	digest := recomputeDigest(t, bundle)

	// Sign bumps the recovery id to the Ethereum 27/28 convention;
	// Ecrecover expects the raw 0/1 form.
	recoverable := make([]byte, 65)
	copy(recoverable, sig)
	require.True(t, recoverable[64] == 27 || recoverable[64] == 28)
	recoverable[64] -= 27

	pubKeyBytes, err := crypto.Ecrecover(digest.Bytes(), recoverable)
	require.NoError(t, err)
	pubKey, err := crypto.UnmarshalPubkey(pubKeyBytes)
	require.NoError(t, err)

	recoveredAddr := crypto.PubkeyToAddress(*pubKey)
	require.Equal(t, wantAddr, recoveredAddr)
}

func recomputeDigest(t *testing.T, bundle domain.Permit2EIP712) common.Hash {
	t.Helper()
	types, err := toApitypesTypes(bundle.Types)
	require.NoError(t, err)

	td := apitypes.TypedData{
		Types:       types,
		PrimaryType: bundle.PrimaryType,
		Domain:      toTypedDataDomain(bundle.Domain),
		Message:     apitypes.TypedDataMessage(bundle.Message),
	}

	domainSep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	require.NoError(t, err)
	msgHash, err := td.HashStruct(td.PrimaryType, td.Message)
	require.NoError(t, err)

	rawData := "\x19\x01" + string(domainSep) + string(msgHash)
	return crypto.Keccak256Hash([]byte(rawData))
}
