package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TFMV/streamwalk/internal/pathenc"
	streamwalk "github.com/TFMV/streamwalk/internal/walk"
)

// printer renders stream items as text lines or JSON lines.
type printer struct {
	w        *bufio.Writer
	format   string
	encoding pathenc.Encoding
	nfc      bool
}

// entryRecord is the JSON form of a DirEntry.
type entryRecord struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
	Kind  string `json:"kind"`
	Type  string `json:"type"`
}

func newPrinter(out io.Writer, cfg walkConfig) *printer {
	return &printer{
		w:        bufio.NewWriter(out),
		format:   cfg.Format,
		encoding: cfg.Encoding,
		nfc:      cfg.NFC,
	}
}

func (p *printer) encode(path string) ([]byte, error) {
	if p.nfc {
		path = pathenc.NFC(path)
	}
	return pathenc.Encode(path, p.encoding)
}

func (p *printer) print(item any) error {
	var path string
	var entry *streamwalk.DirEntry
	switch v := item.(type) {
	case string:
		path = v
	case streamwalk.DirEntry:
		path = v.Path
		entry = &v
	default:
		return fmt.Errorf("unexpected stream item %T", item)
	}

	encoded, err := p.encode(path)
	if err != nil {
		return err
	}

	if p.format == "json" {
		var data []byte
		if entry != nil {
			data, err = json.Marshal(entryRecord{
				Path:  string(encoded),
				Depth: entry.Depth,
				Kind:  entry.Kind.String(),
				Type:  entry.Type(),
			})
		} else {
			data, err = json.Marshal(map[string]string{"path": string(encoded)})
		}
		if err != nil {
			return err
		}
		p.w.Write(data)
		return p.w.WriteByte('\n')
	}

	if entry != nil {
		fmt.Fprintf(p.w, "%s\t%d\t", entry.Type(), entry.Depth)
	}
	p.w.Write(encoded)
	return p.w.WriteByte('\n')
}

func (p *printer) flush() error {
	return p.w.Flush()
}
