package cmd

import (
	"bytes"
	"io/fs"
	"testing"

	"github.com/TFMV/streamwalk/internal/pathenc"
	streamwalk "github.com/TFMV/streamwalk/internal/walk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinterNFC(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out, walkConfig{Format: "text", Encoding: pathenc.UTF8, NFC: true})

	require.NoError(t, p.print("/r/cafe\u0301"))
	require.NoError(t, p.flush())
	assert.Equal(t, "/r/caf\u00e9\n", out.String())
}

func TestPrinterLatin1(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out, walkConfig{Format: "text", Encoding: pathenc.Latin1})

	require.NoError(t, p.print("/r/caf\u00e9"))
	require.NoError(t, p.flush())
	assert.Equal(t, []byte{'/', 'r', '/', 'c', 'a', 'f', 0xe9, '\n'}, out.Bytes())

	assert.Error(t, p.print("/r/日本"))
}

func TestPrinterDirentTypes(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out, walkConfig{Format: "text", Encoding: pathenc.UTF8})

	require.NoError(t, p.print(streamwalk.DirEntry{Depth: 2, Kind: streamwalk.EntryOther, Path: "/r/a/pipe", Mode: fs.ModeNamedPipe}))
	require.NoError(t, p.print(streamwalk.DirEntry{Depth: 1, Kind: streamwalk.EntrySymlink, Path: "/r/link", Mode: fs.ModeSymlink}))
	require.NoError(t, p.flush())
	assert.Equal(t, "fifo\t2\t/r/a/pipe\nsymlink\t1\t/r/link\n", out.String())
}

func TestPrinterJSONEntry(t *testing.T) {
	var out bytes.Buffer
	p := newPrinter(&out, walkConfig{Format: "json", Encoding: pathenc.UTF8})

	require.NoError(t, p.print(streamwalk.DirEntry{Depth: 1, Kind: streamwalk.EntryDirectory, Path: "/r/b", Mode: fs.ModeDir}))
	require.NoError(t, p.flush())
	assert.JSONEq(t, `{"path":"/r/b","depth":1,"kind":"dir","type":"dir"}`, out.String())
}

func TestPrinterUnexpectedItem(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, walkConfig{Format: "text", Encoding: pathenc.UTF8})
	assert.Error(t, p.print(42))
}
