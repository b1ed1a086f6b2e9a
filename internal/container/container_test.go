package container

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
)

func sampleRoot() *config.Root {
	return &config.Root{
		Version: config.Version{Major: 1, Minor: 0, Patch: 0},
		Devices: []config.DeviceConfig{
			{
				Identifier: config.DeviceIdentifier{Pattern: "*"},
				Mappings: []config.KeyMapping{
					config.BaseMapping(config.Modifier(keycode.CapsLock, 0)),
					config.Conditional(config.ModifierActive(0),
						config.Simple(keycode.H, keycode.Left),
						config.Simple(keycode.J, keycode.Down),
					),
					config.BaseMapping(config.TapHold(keycode.Space, keycode.Space, 1, 200_000)),
					config.BaseMapping(config.ModifiedOutput(keycode.Digit1, keycode.Digit1, true, true, false, false)),
				},
			},
		},
		Metadata: config.Metadata{
			CompilationTimestamp: 1234567890,
			CompilerVersion:      "1.0.0",
			SourceHash:           "abc123",
		},
	}
}

func rootsEqual(a, b *config.Root) bool {
	return Serialize(a) != nil && string(Serialize(a)) == string(Serialize(b))
}

func TestRoundTrip(t *testing.T) {
	original := sampleRoot()
	bytes := Serialize(original)

	decoded, err := Deserialize(bytes)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !rootsEqual(original, decoded) {
		t.Fatalf("round trip mismatch:\noriginal: %+v\ndecoded:  %+v", original, decoded)
	}
}

func TestDeterministicSerialization(t *testing.T) {
	a := Serialize(sampleRoot())
	b := Serialize(sampleRoot())
	if string(a) != string(b) {
		t.Fatal("serialize is not deterministic across identical inputs")
	}
}

func TestDeserializeTooSmall(t *testing.T) {
	_, err := Deserialize(make([]byte, 10))
	assertKind(t, err, CorruptedArchive)
}

func TestDeserializeInvalidMagic(t *testing.T) {
	bytes := Serialize(sampleRoot())
	bytes[0] ^= 0xFF
	_, err := Deserialize(bytes)
	assertKind(t, err, InvalidMagic)
}

func TestDeserializeVersionMismatch(t *testing.T) {
	bytes := Serialize(sampleRoot())
	bytes[4] = 99
	_, err := Deserialize(bytes)
	assertKind(t, err, VersionMismatch)
}

func TestDeserializeSizeMismatch(t *testing.T) {
	bytes := Serialize(sampleRoot())
	// Corrupt the declared payload length without touching the payload itself.
	bytes[40] ^= 0xFF
	_, err := Deserialize(bytes)
	assertKind(t, err, SizeMismatch)
}

func TestDeserializeHashMismatch(t *testing.T) {
	bytes := Serialize(sampleRoot())
	bytes[HeaderSize] ^= 0xFF // flip a payload byte; header stays internally consistent
	_, err := Deserialize(bytes)
	assertKind(t, err, HashMismatch)
}

// TestBitFlipAlwaysRejected is scenario 8 and invariant 7 from spec.md §8:
// flipping any single bit in a valid archive must cause Deserialize to fail.
func TestBitFlipAlwaysRejected(t *testing.T) {
	original := Serialize(sampleRoot())

	for i := range original {
		for bit := 0; bit < 8; bit++ {
			mutated := append([]byte(nil), original...)
			mutated[i] ^= 1 << bit

			if _, err := Deserialize(mutated); err == nil {
				t.Fatalf("byte %d bit %d: expected Deserialize to fail on mutated archive", i, bit)
			}
		}
	}
}

func assertKind(t *testing.T, err error, want ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %v, got nil", want)
	}
	de, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
	if de.Kind != want {
		t.Fatalf("expected kind %v, got %v (%v)", want, de.Kind, err)
	}
}
