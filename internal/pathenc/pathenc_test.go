package pathenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		name string
		want Encoding
	}{
		{"", UTF8},
		{"UTF-8", UTF8},
		{"utf16le", UTF16LE},
		{"ucs2", UTF16LE},
		{"ISO-8859-1", Latin1},
		{"base64", Base64},
		{"base64url", Base64URL},
		{"hex", Hex},
		{"binary", Binary},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseEncoding("ebcdic")
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	tests := []struct {
		enc  Encoding
		in   string
		want []byte
	}{
		{UTF8, "/a/é", []byte("/a/é")},
		{UTF16LE, "/a", []byte{'/', 0, 'a', 0}},
		{Latin1, "/é", []byte{'/', 0xe9}},
		{Binary, "/é", []byte{'/', 0xe9}},
		{Base64, "/a/b", []byte("L2EvYg==")},
		{Base64URL, "/a/b", []byte("L2EvYg")},
		{Hex, "/a", []byte("2f61")},
	}
	for _, tt := range tests {
		got, err := Encode(tt.in, tt.enc)
		require.NoError(t, err, tt.enc)
		assert.Equal(t, tt.want, got, tt.enc)

		back, err := Decode(got, tt.enc)
		require.NoError(t, err, tt.enc)
		assert.Equal(t, tt.in, back, tt.enc)
	}
}

func TestEncodeLatin1Unrepresentable(t *testing.T) {
	_, err := Encode("/日本", Latin1)
	assert.Error(t, err)
}

func TestEncodeUnknown(t *testing.T) {
	_, err := Encode("/a", Encoding("rot13"))
	assert.Error(t, err)
}

func TestNFC(t *testing.T) {
	decomposed := "é"
	assert.Equal(t, "é", NFC(decomposed))
	assert.Equal(t, "/plain", NFC("/plain"))
}
