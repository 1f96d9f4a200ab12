// Package permit2 signs the EIP-712 typed-data bundle an adapter attaches
// to a quote that requires a gas-less Permit2 allowance, and splices the
// resulting signature into the adapter's transaction payload using the
// aggregator's v2 calldata convention.
package permit2

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/swaprouter/gateway/domain"
)

// ContractAddress is the canonical Permit2 contract, identical across
// every supported chain.
const ContractAddress = "0x000000000022D473030F116dDEE9F6B43aC78BA3"

// HasPermit2 reports whether the quote carries a Permit2 typed-data
// block at all.
func HasPermit2(q domain.SwapQuote) bool {
	return q.Permit2 != nil
}

// toApitypesTypes adapts a generic map[string]interface{} into the
// apitypes representation. types and domain are treated as opaque and
// passed through unchanged other than this shape conversion — including
// an embedded EIP712Domain entry, which is tolerated rather than
// stripped.
func toApitypesTypes(raw map[string]interface{}) (apitypes.Types, error) {
	out := make(apitypes.Types, len(raw))
	for typeName, fieldsRaw := range raw {
		fieldsList, ok := fieldsRaw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("permit2: type %q fields are not a list", typeName)
		}
		fields := make([]apitypes.Type, 0, len(fieldsList))
		for _, fRaw := range fieldsList {
			fMap, ok := fRaw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("permit2: type %q has a malformed field", typeName)
			}
			name, _ := fMap["name"].(string)
			typ, _ := fMap["type"].(string)
			fields = append(fields, apitypes.Type{Name: name, Type: typ})
		}
		out[typeName] = fields
	}
	return out, nil
}

func toTypedDataDomain(raw map[string]interface{}) apitypes.TypedDataDomain {
	d := apitypes.TypedDataDomain{}
	if v, ok := raw["name"].(string); ok {
		d.Name = v
	}
	if v, ok := raw["version"].(string); ok {
		d.Version = v
	}
	if v, ok := raw["verifyingContract"].(string); ok {
		d.VerifyingContract = v
	}
	if v, ok := raw["salt"].(string); ok {
		d.Salt = v
	}
	switch v := raw["chainId"].(type) {
	case float64:
		d.ChainId = math.NewHexOrDecimal256(int64(v))
	case int64:
		d.ChainId = math.NewHexOrDecimal256(v)
	}
	return d
}

// Sign produces a 65-byte EIP-712 signature over the adapter-supplied
// (domain, types, primaryType, message) bundle: HashStruct the domain
// and the message, concatenate behind the "\x19\x01" prefix, and sign
// the Keccak256 digest. The bundle's schema is opaque to this function,
// but the domain is hashed through the types map, so bundle.Types must
// carry an EIP712Domain entry describing the domain's fields; without
// one, hashing the domain fails.
func Sign(bundle domain.Permit2EIP712, privateKey *ecdsa.PrivateKey) (string, error) {
	types, err := toApitypesTypes(bundle.Types)
	if err != nil {
		return "", err
	}

	td := apitypes.TypedData{
		Types:       types,
		PrimaryType: bundle.PrimaryType,
		Domain:      toTypedDataDomain(bundle.Domain),
		Message:     apitypes.TypedDataMessage(bundle.Message),
	}

	domainSep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return "", fmt.Errorf("permit2: hashing domain: %w", err)
	}
	msgHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return "", fmt.Errorf("permit2: hashing message: %w", err)
	}

	rawData := fmt.Sprintf("\x19\x01%s%s", string(domainSep), string(msgHash))
	digest := crypto.Keccak256Hash([]byte(rawData))

	sig, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return "", fmt.Errorf("permit2: signing: %w", err)
	}

	// Ethereum signature convention: v = 27 or 28, not 0 or 1.
	if len(sig) == 65 && sig[64] < 27 {
		sig[64] += 27
	}

	return "0x" + hex.EncodeToString(sig), nil
}

// PermitQuote is the output of ProcessPermit2Quote.
type PermitQuote struct {
	OriginalTxData string
	Signature      string
	ModifiedTxData string
	Permit2Data    domain.Permit2Data
}

// ProcessPermit2Quote signs q.Permit2 and splices the result into q's
// transaction data. It fails if q has no Permit2 block at all.
func ProcessPermit2Quote(q domain.SwapQuote, privateKey *ecdsa.PrivateKey) (PermitQuote, error) {
	if q.Permit2 == nil {
		return PermitQuote{}, fmt.Errorf("permit2: quote has no permit2 block")
	}
	sig, err := Sign(q.Permit2.EIP712, privateKey)
	if err != nil {
		return PermitQuote{}, err
	}
	modified, err := Splice(q.Data, sig)
	if err != nil {
		return PermitQuote{}, err
	}
	return PermitQuote{
		OriginalTxData: q.Data,
		Signature:      sig,
		ModifiedTxData: modified,
		Permit2Data:    *q.Permit2,
	}, nil
}

// CreateSignedQuote returns a copy of q with Data replaced by the
// spliced, Permit2-signed payload.
func CreateSignedQuote(q domain.SwapQuote, pq PermitQuote) domain.SwapQuote {
	out := q
	out.Data = pq.ModifiedTxData
	return out
}

// PermitInfo is the informational summary GetPermit2Info extracts for
// logs — never the signing secret, never the raw message values.
type PermitInfo struct {
	Type        string
	Hash        string
	PrimaryType string
	Domain      map[string]interface{}
	MessageKeys []string
}

// GetPermit2Info summarizes q.Permit2 for diagnostic logging.
func GetPermit2Info(q domain.SwapQuote) (PermitInfo, bool) {
	if q.Permit2 == nil {
		return PermitInfo{}, false
	}
	keys := make([]string, 0, len(q.Permit2.EIP712.Message))
	for k := range q.Permit2.EIP712.Message {
		keys = append(keys, k)
	}
	return PermitInfo{
		Type:        q.Permit2.Type,
		Hash:        q.Permit2.Hash,
		PrimaryType: q.Permit2.EIP712.PrimaryType,
		Domain:      q.Permit2.EIP712.Domain,
		MessageKeys: keys,
	}, true
}

// normalizeHex strips an optional "0x"/"0X" prefix.
func normalizeHex(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}
