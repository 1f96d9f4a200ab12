package execution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	cases := []struct {
		in   error
		want string
	}{
		{errors.New("insufficient funds for gas * price + value"), "insufficient-funds"},
		{errors.New("gas required exceeds allowance"), "gas-estimation"},
		{errors.New("out of gas"), "gas-estimation"},
		{errors.New("slippage tolerance exceeded"), "slippage"},
		{errors.New("quote deadline has expired"), "deadline"},
		{errors.New("dial tcp: no such host"), "network"},
		{errors.New("context deadline exceeded: timeout"), "network"},
		{errors.New("nonce too low"), "nonce"},
		{errors.New("replacement transaction underpriced"), "replacement"},
		{errors.New("something exotic went wrong"), "unknown"},
		{nil, ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, translateError(c.in))
	}
}
