package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLegacySimpleCall(t *testing.T) {
	in, err := Decode([]byte(`forward(3)`))
	require.NoError(t, err)
	require.Equal(t, "forward", in.Type)
	require.Equal(t, []any{float64(3)}, in.Get("args"))
}

func TestLegacyMixedArgs(t *testing.T) {
	in, err := Decode([]byte(`setBlock("stone", 1, -2, true, north)`))
	require.NoError(t, err)
	require.Equal(t, "setBlock", in.Type)
	require.Equal(t, []any{"stone", float64(1), float64(-2), true, "north"}, in.Get("args"))
}

func TestLegacyNestedArgs(t *testing.T) {
	in, err := Decode([]byte(`move([1,2],{"speed":3})`))
	require.NoError(t, err)
	require.Equal(t, "move", in.Type)
	args, ok := in.Get("args").([]any)
	require.True(t, ok)
	require.Len(t, args, 2)
	require.Equal(t, []any{float64(1), float64(2)}, args[0])
	require.Equal(t, map[string]any{"speed": float64(3)}, args[1])
}

func TestLegacyQuotedCommaStaysOneArg(t *testing.T) {
	in, err := Decode([]byte(`say("hello, world")`))
	require.NoError(t, err)
	require.Equal(t, []any{"hello, world"}, in.Get("args"))
}

func TestLegacyBareWord(t *testing.T) {
	in, err := Decode([]byte(`ping`))
	require.NoError(t, err)
	require.Equal(t, TypePing, in.Type)
	require.Equal(t, []any{}, in.Get("args"))
}

func TestLegacyEmptyArgs(t *testing.T) {
	in, err := Decode([]byte(`jump()`))
	require.NoError(t, err)
	require.Equal(t, "jump", in.Type)
	require.Equal(t, []any{}, in.Get("args"))
}

func TestLegacyMalformed(t *testing.T) {
	for _, raw := range []string{`forward(3`, `(3)`, `for ward(3)`, `fwd(1))extra`} {
		_, err := Decode([]byte(raw))
		require.Error(t, err, "raw=%q", raw)
	}
}
