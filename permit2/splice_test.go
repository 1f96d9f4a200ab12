package permit2

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpliceMatchesAggregatorConvention(t *testing.T) {
	sig := "0x" + strings.Repeat("aa", 65)
	got, err := Splice("0xabcd", sig)
	require.NoError(t, err)

	want := "0xabcd" + strings.Repeat("00", 31) + "41" + strings.Repeat("aa", 65)
	require.Equal(t, want, got)
}

func TestSpliceUnspliceRoundTrip(t *testing.T) {
	sig := "0x" + strings.Repeat("bb", 65)
	original := "0x1234567890abcdef"

	spliced, err := Splice(original, sig)
	require.NoError(t, err)

	gotOriginal, gotSig, err := Unsplice(spliced, 65)
	require.NoError(t, err)
	require.Equal(t, original, gotOriginal)
	require.Equal(t, sig, gotSig)
}

func TestSpliceLengthInvariant(t *testing.T) {
	sig := "0x" + strings.Repeat("cc", 65)
	spliced, err := Splice("0xdead", sig)
	require.NoError(t, err)

	raw := strings.TrimPrefix(spliced, "0x")
	origBytes := len("dead") / 2
	wantHexLen := (origBytes+32+65)*2 + 2
	require.Equal(t, wantHexLen, len(spliced))
	_ = raw
}
