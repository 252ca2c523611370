package transport

import (
	"net"
	"testing"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/op"
)

func newPipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	r, w := net.Pipe()
	t.Cleanup(func() { r.Close(); w.Close() })
	return r, w
}

func TestEncodeDecodeOpRoundTrip(t *testing.T) {
	src := op.New(op.ClassMove, eid.New(1, 0), eid.New(2, 0)).
		Arg(map[string]any{"id": eid.New(3, 0)})
	src.SerialNo = 7
	src.RefNo = 3

	blob, err := EncodeOp(src)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := DecodeOp(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Class != src.Class || out.From != src.From || out.To != src.To {
		t.Fatalf("envelope mismatch: got %+v", out)
	}
	if out.SerialNo != 7 || out.RefNo != 3 {
		t.Fatalf("serial/ref mismatch: got %+v", out)
	}
	if len(out.Args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(out.Args))
	}
	ref, ok := out.Args[0].(map[string]any)
	if !ok {
		t.Fatalf("expected entity-reference map, got %T", out.Args[0])
	}
	if ref["id"] != eid.New(3, 0) {
		t.Fatalf("expected id %v, got %v (%T)", eid.New(3, 0), ref["id"], ref["id"])
	}
}

func TestEncodeDecodeNestedOpArg(t *testing.T) {
	inner := op.New(op.ClassSet, eid.New(5, 0), eid.New(5, 0)).Arg("ignored")
	outer := op.New(op.ClassThought, eid.New(1, 0), eid.New(5, 0)).Arg(&inner)

	blob, err := EncodeOp(outer)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeOp(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	nested, ok := decoded.FirstArgOp()
	if !ok {
		t.Fatalf("expected a nested op argument")
	}
	if nested.Class != op.ClassSet || nested.From != eid.New(5, 0) {
		t.Fatalf("nested op mismatch: got %+v", nested)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	r, w := newPipe(t)
	payload := []byte(`{"hello":"world"}`)

	go func() {
		if err := WriteFrame(w, payload); err != nil {
			t.Error(err)
		}
		w.Close()
	}()

	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("expected %q, got %q", payload, got)
	}
}
