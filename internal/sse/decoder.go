// Package sse splits a text/event-stream body into the payloads of its
// `data: ` lines.
package sse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	DataPrefix = "data: "

	readChunkSize = 4 << 10
	maxLineBytes  = 1 << 20
)

var ErrLineTooLong = errors.New("event-stream line exceeds limit")

// Decoder reads an event stream incrementally. Bytes after the last line
// terminator stay buffered until the next read completes the line, so a frame
// split across network reads is parsed exactly once.
type Decoder struct {
	r     io.Reader
	chunk []byte
	buf   []byte
	err   error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:     r,
		chunk: make([]byte, readChunkSize),
	}
}

// Next returns the payload of the next data line, in stream order. Other
// lines (event names, ids, comments, blank separators) are skipped. At the
// end of the stream Next returns io.EOF; a trailing line that never received
// its terminator is dropped.
func (d *Decoder) Next() ([]byte, error) {
	for {
		if line, ok := d.nextLine(); ok {
			if payload, isData := dataPayload(line); isData {
				return payload, nil
			}
			continue
		}

		if d.err != nil {
			return nil, d.err
		}

		if err := d.fill(); err != nil {
			d.err = err
		}
	}
}

func (d *Decoder) fill() error {
	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.buf = append(d.buf, d.chunk[:n]...)
		if len(d.buf) > maxLineBytes && bytes.IndexByte(d.buf, '\n') < 0 {
			return fmt.Errorf("%w (%d bytes without terminator)", ErrLineTooLong, len(d.buf))
		}
	}

	return err
}

func (d *Decoder) nextLine() ([]byte, bool) {
	i := bytes.IndexByte(d.buf, '\n')
	if i < 0 {
		return nil, false
	}

	line := make([]byte, i)
	copy(line, d.buf[:i])

	rest := copy(d.buf, d.buf[i+1:])
	d.buf = d.buf[:rest]

	return bytes.TrimSuffix(line, []byte{'\r'}), true
}

func dataPayload(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return nil, false
	}

	return line[len(DataPrefix):], true
}
