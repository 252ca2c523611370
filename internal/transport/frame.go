// Package transport is the wire/router boundary: it accepts
// TCP connections, decodes framed JSON operation envelopes into op.Op
// values, and hands them to whatever reads Session.InQueue. The core never
// parses bytes itself — this package is the only place that does.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrame bounds a single operation envelope. Generous since an op's
// Args can carry whole entity snapshots.
const maxFrame = 1 << 20

// ReadFrame reads one length-prefixed JSON payload from r.
// Wire format: [4 bytes BE: len(payload)][payload].
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n == 0 || n > maxFrame {
		return nil, fmt.Errorf("invalid frame length: %d", n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", n, err)
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed JSON payload to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrame {
		return fmt.Errorf("frame too large: %d bytes", len(payload))
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
