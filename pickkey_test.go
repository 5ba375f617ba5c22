package previz

import (
	"testing"
)

func TestPickKeyRoundTrip(t *testing.T) {
	keys := []PickKey{
		{Kind: PickSceneMesh, ObjectID: 1, SubID: 0},
		{Kind: PickSceneMesh, ObjectID: MaxPickObjectID, SubID: 255},
		{Kind: PickGizmoHandle, ObjectID: 0, SubID: subRingView},
		{Kind: PickLightHelper, ObjectID: 0x12345, SubID: uint8(LightSpot)},
	}
	for _, k := range keys {
		px := k.EncodeRGBA()
		got, ok := DecodePickKey(px)
		if !ok {
			t.Fatalf("decode of %+v rejected", k)
		}
		if got != k {
			t.Fatalf("round trip %+v -> %+v", k, got)
		}
	}
}

func TestPickKeyZeroPixelIsNoHit(t *testing.T) {
	key, ok := DecodePickKey([4]uint8{})
	if !ok {
		t.Fatal("zero pixel must decode")
	}
	if !key.IsNone() {
		t.Fatalf("zero pixel decoded to %+v", key)
	}
}

func TestPickKeyRejectsUnknownKind(t *testing.T) {
	// Kind nibble 0xF is unassigned; a stale buffer must not fabricate a hit.
	if _, ok := DecodePickKey([4]uint8{0xF0, 0, 1, 0}); ok {
		t.Fatal("unknown kind must be rejected")
	}
	// Kind zero with nonzero payload is malformed, not a hit.
	if _, ok := DecodePickKey([4]uint8{0x00, 0, 1, 0}); ok {
		t.Fatal("kind-zero pixel with payload must be rejected")
	}
}

func TestPickKeyValidate(t *testing.T) {
	if err := (PickKey{Kind: PickSceneMesh, ObjectID: MaxPickObjectID}).Validate(); err != nil {
		t.Fatalf("max object id must validate: %v", err)
	}
	if err := (PickKey{Kind: PickSceneMesh, ObjectID: MaxPickObjectID + 1}).Validate(); err == nil {
		t.Fatal("21-bit object id must be rejected")
	}
}

func TestHandleSubIDRoundTrip(t *testing.T) {
	cases := []struct {
		mode Mode
		h    Handle
	}{
		{ModeTranslate, HandleAxisX},
		{ModeTranslate, HandlePlaneYZ},
		{ModeRotate, HandleRingZ},
		{ModeRotate, HandleRingView},
		{ModeScale, HandleAxisY},
		{ModeScale, HandlePlaneXZ},
		{ModeScale, HandleUniform},
	}
	for _, c := range cases {
		sub := HandleSubID(c.mode, c.h)
		if sub == 0 {
			t.Fatalf("no sub id for %v/%v", c.mode, c.h)
		}
		mode, h, ok := SubIDHandle(sub)
		if !ok || mode != c.mode || h != c.h {
			t.Fatalf("sub %d resolved to %v/%v, want %v/%v", sub, mode, h, c.mode, c.h)
		}
	}
}

func TestHandleSubIDStaleToolMismatch(t *testing.T) {
	// A translate handle never has a rotate sub id.
	if sub := HandleSubID(ModeRotate, HandleAxisX); sub != 0 {
		t.Fatalf("rotate tool has no axis arrows, got sub %d", sub)
	}
	if _, _, ok := SubIDHandle(200); ok {
		t.Fatal("unassigned sub id must not resolve")
	}
}
