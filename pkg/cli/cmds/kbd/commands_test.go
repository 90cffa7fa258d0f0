package kbd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/termkbd/pkg/ps2"
)

func TestParseCode(t *testing.T) {
	cases := []struct {
		in   string
		code byte
	}{
		{"1c", 0x1c},
		{"0x5A", 0x5a},
		{"08", 0x08},
		{"87", 0x87},
	}
	for i, c := range cases {
		code, err := ParseCode(c.in)
		require.NoErrorf(t, err, "case[%d] %q", i, c.in)
		assert.Equalf(t, c.code, code, "case[%d] %q", i, c.in)
	}

	_, err := ParseCode("zz")
	assert.Error(t, err)
	_, err = ParseCode("100")
	assert.Error(t, err)
	_, err = ParseCode("00")
	assert.True(t, errors.Is(err, ps2.ErrInvalidCode))
	_, err = ParseCode("88")
	assert.True(t, errors.Is(err, ps2.ErrInvalidCode))
}

func TestRenderMatrix(t *testing.T) {
	var matrix ps2.Matrix
	rows := make([]byte, ps2.MatrixRows)
	rows[3] = 0x10
	copy(matrix[:], rows)
	plain := RenderMatrix(rows, false)
	assert.Equal(t, matrix.String(), plain)
	assert.Contains(t, plain, "03: 00001000")

	styled := RenderMatrix(rows, true)
	assert.Equal(t, ps2.MatrixRows+1, strings.Count(styled, "\n"))
}
