package serial

import (
	"testing"

	"github.com/nspcc-dev/rds-go/pkg/io"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncodeDecode(t *testing.T) {
	for _, version := range []int{VersionTwo, VersionThree} {
		h := NewHeader(version)
		buf := io.NewBufBinWriter()
		h.EncodeBinary(buf.BinWriter)
		require.NoError(t, buf.Err)

		var actual Header
		r := io.NewBinReaderFromBuf(buf.Bytes())
		actual.DecodeBinary(r)
		require.NoError(t, r.Err)
		require.Equal(t, h, actual)
	}
}

func TestHeaderBytes(t *testing.T) {
	buf := io.NewBufBinWriter()
	h := NewHeader(VersionThree)
	h.EncodeBinary(buf.BinWriter)
	require.Equal(t, []byte{
		'X', '\n',
		0, 0, 0, 3,
		0, 4, 3, 1,
		0, 3, 5, 0,
		0, 0, 0, 5, 'U', 'T', 'F', '-', '8',
	}, buf.Bytes())
	require.Equal(t, "version 3, written by 4.3.1, readable by 3.5.0, native encoding UTF-8", h.String())
}

func TestHeaderDecodeErrors(t *testing.T) {
	testCases := map[string][]byte{
		"bad magic":   {'Y', '\n', 0, 0, 0, 2, 0, 4, 3, 1, 0, 2, 3, 0},
		"ascii":       {'A', '\n', 0, 0, 0, 2, 0, 4, 3, 1, 0, 2, 3, 0},
		"native":      {'B', '\n', 0, 0, 0, 2, 0, 4, 3, 1, 0, 2, 3, 0},
		"bad version": {'X', '\n', 0, 0, 0, 4, 0, 4, 3, 1, 0, 2, 3, 0},
		"version one": {'X', '\n', 0, 0, 0, 1, 0, 4, 3, 1, 0, 2, 3, 0},
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			var h Header
			r := io.NewBinReaderFromBuf(data)
			h.DecodeBinary(r)
			require.ErrorIs(t, r.Err, ErrMalformedHeader)

			_, err := Deserialize(data, nil)
			require.ErrorIs(t, err, ErrMalformedHeader)
		})
	}
}
