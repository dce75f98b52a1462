package ipc

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{Kind: KindChildReady, Pid: 1234}
	data, err := encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != m {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestSetupErrorWithKind(t *testing.T) {
	e := &SetupError{ErrKind: "namespace", Detail: "clone failed"}
	want := "namespace: clone failed"
	if e.Error() != want {
		t.Errorf("got %q, want %q", e.Error(), want)
	}
}

func TestSetupErrorWithoutKind(t *testing.T) {
	e := &SetupError{Detail: "clone failed"}
	if e.Error() != "clone failed" {
		t.Errorf("got %q, want %q", e.Error(), "clone failed")
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	if _, err := decode([]byte("not json")); err == nil {
		t.Fatal("expected decode error for invalid JSON")
	}
}
