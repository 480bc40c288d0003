// Package pathenc renders walk path tokens in a chosen output encoding.
package pathenc

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// Encoding names an output representation of a path token.
type Encoding string

const (
	UTF8      Encoding = "utf8"
	UTF16LE   Encoding = "utf16le"
	Latin1    Encoding = "latin1"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
	Hex       Encoding = "hex"
	Binary    Encoding = "binary" // alias of latin1
)

// Encodings lists every supported encoding.
var Encodings = []Encoding{UTF8, UTF16LE, Latin1, Base64, Base64URL, Hex, Binary}

// ParseEncoding maps a name to an Encoding. Matching is case-insensitive and
// accepts the common hyphenated spellings.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf8", "utf-8":
		return UTF8, nil
	case "utf16le", "utf-16le", "ucs2", "ucs-2":
		return UTF16LE, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return Latin1, nil
	case "base64":
		return Base64, nil
	case "base64url":
		return Base64URL, nil
	case "hex":
		return Hex, nil
	case "binary":
		return Binary, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

// Encode converts token to enc. Tokens that cannot be represented in a
// single-byte charset fail rather than being silently replaced.
func Encode(token string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(token), nil
	case UTF16LE:
		return transcode(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), token)
	case Latin1, Binary:
		return transcode(charmap.ISO8859_1, token)
	case Base64:
		return []byte(base64.StdEncoding.EncodeToString([]byte(token))), nil
	case Base64URL:
		return []byte(base64.RawURLEncoding.EncodeToString([]byte(token))), nil
	case Hex:
		return []byte(hex.EncodeToString([]byte(token))), nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", enc)
}

// Decode reverses Encode.
func Decode(data []byte, enc Encoding) (string, error) {
	switch enc {
	case UTF8, "":
		return string(data), nil
	case UTF16LE:
		b, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		return string(b), err
	case Latin1, Binary:
		b, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		return string(b), err
	case Base64:
		b, err := base64.StdEncoding.DecodeString(string(data))
		return string(b), err
	case Base64URL:
		b, err := base64.RawURLEncoding.DecodeString(string(data))
		return string(b), err
	case Hex:
		b, err := hex.DecodeString(string(data))
		return string(b), err
	}
	return "", fmt.Errorf("unsupported encoding %q", enc)
}

// NFC returns token in Unicode normalization form C. Invalid UTF-8 is
// passed through unchanged.
func NFC(token string) string {
	return norm.NFC.String(token)
}

func transcode(e encoding.Encoding, token string) ([]byte, error) {
	b, err := e.NewEncoder().Bytes([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", token, err)
	}
	return b, nil
}
