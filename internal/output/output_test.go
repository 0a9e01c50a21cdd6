// SPDX-License-Identifier: MIT
package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbank/pkg/fbank"
)

func testFeatures() Features {
	return NewFeatures("spk1-utt1", fbank.Matrix{{1.5, -2}, {0.25, 3}})
}

func TestParseFormat(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatMsgpack, FormatText} {
		got, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := ParseFormat("csv")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestNewFeaturesShape(t *testing.T) {
	feats := testFeatures()
	assert.Equal(t, 2, feats.Frames)
	assert.Equal(t, 2, feats.Bins)

	empty := NewFeatures("e", fbank.Matrix{})
	assert.Zero(t, empty.Frames)
	assert.Zero(t, empty.Bins)
}

func TestEncodeDecode(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatMsgpack} {
		t.Run(f.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, testFeatures()))

			got, err := Decode(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, testFeatures(), got)
		})
	}
}

func TestEncodeText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatText, testFeatures()))
	assert.Equal(t, "spk1-utt1  [\n  1.5 -2\n  0.25 3 ]\n", buf.String())

	buf.Reset()
	require.NoError(t, Encode(&buf, FormatText, NewFeatures("", fbank.Matrix{})))
	assert.Equal(t, "utt  [ ]\n", buf.String())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(bytes.NewReader(nil), FormatText)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Decode(bytes.NewBufferString("{not json"), FormatJSON)
	assert.Error(t, err)
}
