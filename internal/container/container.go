// Package container implements the compiled-config binary file format
// (spec.md §4.B): a fixed 48-byte header (magic, version, SHA-256 of the
// payload, payload length) followed by a deterministic, hand-rolled binary
// encoding of a config.Root.
//
// No pack dependency offers a byte-stable, deterministic archive codec for
// this shape of data: encoding/gob's wire format is tied to a type's
// registration order within a single stream and is not specified to be
// byte-stable across Go versions, which would violate the round-trip and
// determinism invariants this format requires (spec.md §8); encoding/json
// and encoding/yaml are not byte-stable for floats/maps either. A compact
// fixed-field binary encoding, in the style of aclements-go-perf's
// perffile/format.go, is the correct tool here, so this package is
// stdlib-only (encoding/binary, crypto/sha256) by design, not by omission.
package container

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
)

// Magic is the 4-byte file signature "KRX\n".
var Magic = [4]byte{0x4B, 0x52, 0x58, 0x0A}

// Version is the current container format version.
const Version uint32 = 1

// HeaderSize is the size in bytes of the fixed container header.
const HeaderSize = 48

// maxCount bounds any length-prefixed slice/string decoded from an
// untrusted archive, so a corrupted length field can never trigger an
// enormous allocation before the hash check has even run.
const maxCount = 1 << 20

// ErrorKind classifies why deserialization failed (spec.md §4.B / §7).
type ErrorKind int

const (
	InvalidMagic ErrorKind = iota
	VersionMismatch
	SizeMismatch
	HashMismatch
	CorruptedArchive
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidMagic:
		return "InvalidMagic"
	case VersionMismatch:
		return "VersionMismatch"
	case SizeMismatch:
		return "SizeMismatch"
	case HashMismatch:
		return "HashMismatch"
	case CorruptedArchive:
		return "CorruptedArchive"
	default:
		return "Unknown"
	}
}

// DecodeError is returned by Deserialize. It is fatal for the config that
// produced it; callers reloading at runtime must keep the previously
// active configuration (spec.md §7).
type DecodeError struct {
	Kind ErrorKind
	Msg  string
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Msg) }

func decodeErr(kind ErrorKind, format string, args ...any) error {
	return &DecodeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Serialize archives cfg and wraps it in the container header. Serialize
// is deterministic: identical ConfigRoot values always produce identical
// bytes, on any host, in any process — no timestamps, pointers, or map
// iteration order leak into the output (encodeRoot only ever walks slices
// in their original order).
func Serialize(cfg *config.Root) []byte {
	payload := encodeRoot(cfg)

	sum := sha256.Sum256(payload)

	out := make([]byte, HeaderSize+len(payload))
	copy(out[0:4], Magic[:])
	binary.LittleEndian.PutUint32(out[4:8], Version)
	copy(out[8:40], sum[:])
	binary.LittleEndian.PutUint64(out[40:48], uint64(len(payload)))
	copy(out[HeaderSize:], payload)
	return out
}

// Deserialize validates and decodes a container produced by Serialize.
// Validation happens strictly in the order spec.md §4.B prescribes: size,
// magic, version, declared-vs-actual payload length, hash, then archive
// structure — so a truncated or corrupted file is always rejected at the
// earliest check that can detect it.
func Deserialize(data []byte) (*config.Root, error) {
	if len(data) < HeaderSize {
		return nil, decodeErr(CorruptedArchive, "file too small: %d bytes, need at least %d", len(data), HeaderSize)
	}

	if [4]byte(data[0:4]) != Magic {
		return nil, decodeErr(InvalidMagic, "got % x, want % x", data[0:4], Magic[:])
	}

	version := binary.LittleEndian.Uint32(data[4:8])
	if version != Version {
		return nil, decodeErr(VersionMismatch, "got %d, want %d", version, Version)
	}

	embeddedHash := data[8:40]
	declaredSize := binary.LittleEndian.Uint64(data[40:48])
	payload := data[HeaderSize:]

	if declaredSize != uint64(len(payload)) {
		return nil, decodeErr(SizeMismatch, "header declares %d bytes, file has %d", declaredSize, len(payload))
	}

	sum := sha256.Sum256(payload)
	if !bytesEqual(sum[:], embeddedHash) {
		return nil, decodeErr(HashMismatch, "payload SHA-256 does not match header")
	}

	root, err := decodeRoot(payload)
	if err != nil {
		return nil, err
	}
	return root, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- encoding ---

type encoder struct{ buf []byte }

func (e *encoder) u8(v uint8)  { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *encoder) u32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) u64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }
func (e *encoder) code(c keycode.Code) { e.u16(uint16(c)) }

func (e *encoder) bool(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}
func (e *encoder) str(s string) {
	e.u32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func encodeRoot(r *config.Root) []byte {
	e := &encoder{}
	e.u16(r.Version.Major)
	e.u16(r.Version.Minor)
	e.u16(r.Version.Patch)

	e.u32(uint32(len(r.Devices)))
	for _, d := range r.Devices {
		encodeDeviceConfig(e, d)
	}

	e.u64(r.Metadata.CompilationTimestamp)
	e.str(r.Metadata.CompilerVersion)
	e.str(r.Metadata.SourceHash)

	return e.buf
}

func encodeDeviceConfig(e *encoder, d config.DeviceConfig) {
	e.str(d.Identifier.Pattern)
	e.u32(uint32(len(d.Mappings)))
	for _, m := range d.Mappings {
		encodeKeyMapping(e, m)
	}
}

func encodeKeyMapping(e *encoder, m config.KeyMapping) {
	e.u8(uint8(m.Kind))
	switch m.Kind {
	case config.MappingBase:
		encodeBaseMapping(e, m.Base)
	case config.MappingConditional:
		encodeCondition(e, m.Condition)
		e.u32(uint32(len(m.Mappings)))
		for _, bm := range m.Mappings {
			encodeBaseMapping(e, bm)
		}
	}
}

func encodeBaseMapping(e *encoder, m config.BaseKeyMapping) {
	e.u8(uint8(m.Kind))
	e.code(m.From)
	switch m.Kind {
	case config.KindSimple:
		e.code(m.To)
	case config.KindModifier, config.KindLock:
		e.u8(m.BitID)
	case config.KindTapHold:
		e.code(m.Tap)
		e.u8(m.HoldModifier)
		e.u32(m.ThresholdUs)
	case config.KindModifiedOutput:
		e.code(m.To)
		e.bool(m.Shift)
		e.bool(m.Ctrl)
		e.bool(m.Alt)
		e.bool(m.Win)
	}
}

func encodeCondition(e *encoder, c config.Condition) {
	e.u8(uint8(c.Kind))
	switch c.Kind {
	case config.CondModifierActive, config.CondLockActive:
		e.u8(c.ID)
	case config.CondAllActive, config.CondNotActive:
		e.u32(uint32(len(c.Items)))
		for _, it := range c.Items {
			e.u8(uint8(it.Kind))
			e.u8(it.ID)
		}
	}
}

// --- decoding ---

var errShortArchive = errors.New("unexpected end of archive")

type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int { return len(d.buf) - d.pos }

func (d *decoder) u8() (uint8, error) {
	if d.remaining() < 1 {
		return 0, errShortArchive
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) boolean() (bool, error) {
	v, err := d.u8()
	return v != 0, err
}

func (d *decoder) u16() (uint16, error) {
	if d.remaining() < 2 {
		return 0, errShortArchive
	}
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, errShortArchive
	}
	v := binary.LittleEndian.Uint32(d.buf[d.pos:])
	d.pos += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, errShortArchive
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

func (d *decoder) code() (keycode.Code, error) {
	v, err := d.u16()
	if err != nil {
		return 0, err
	}
	c := keycode.Code(v)
	if !keycode.Valid(c) {
		return 0, fmt.Errorf("invalid key code %d", v)
	}
	return c, nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if n > maxCount || d.remaining() < int(n) {
		return "", fmt.Errorf("string length %d exceeds archive", n)
	}
	s := string(d.buf[d.pos : d.pos+int(n)])
	d.pos += int(n)
	return s, nil
}

func (d *decoder) count() (uint32, error) {
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if n > maxCount {
		return 0, fmt.Errorf("count %d exceeds archive limit", n)
	}
	return n, nil
}

func decodeRoot(payload []byte) (root *config.Root, err error) {
	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = decodeErr(CorruptedArchive, "panic while decoding: %v", r)
		}
	}()

	d := &decoder{buf: payload}
	r := &config.Root{}

	if r.Version.Major, err = d.u16(); err != nil {
		return nil, wrapCorrupt(err)
	}
	if r.Version.Minor, err = d.u16(); err != nil {
		return nil, wrapCorrupt(err)
	}
	if r.Version.Patch, err = d.u16(); err != nil {
		return nil, wrapCorrupt(err)
	}

	deviceCount, err := d.count()
	if err != nil {
		return nil, wrapCorrupt(err)
	}
	r.Devices = make([]config.DeviceConfig, deviceCount)
	for i := range r.Devices {
		if r.Devices[i], err = decodeDeviceConfig(d); err != nil {
			return nil, wrapCorrupt(err)
		}
	}

	if r.Metadata.CompilationTimestamp, err = d.u64(); err != nil {
		return nil, wrapCorrupt(err)
	}
	if r.Metadata.CompilerVersion, err = d.str(); err != nil {
		return nil, wrapCorrupt(err)
	}
	if r.Metadata.SourceHash, err = d.str(); err != nil {
		return nil, wrapCorrupt(err)
	}

	if d.remaining() != 0 {
		return nil, decodeErr(CorruptedArchive, "%d trailing bytes after root", d.remaining())
	}

	return r, nil
}

func wrapCorrupt(err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return decodeErr(CorruptedArchive, "%v", err)
}

func decodeDeviceConfig(d *decoder) (config.DeviceConfig, error) {
	var dc config.DeviceConfig
	pattern, err := d.str()
	if err != nil {
		return dc, err
	}
	dc.Identifier = config.DeviceIdentifier{Pattern: pattern}

	n, err := d.count()
	if err != nil {
		return dc, err
	}
	dc.Mappings = make([]config.KeyMapping, n)
	for i := range dc.Mappings {
		if dc.Mappings[i], err = decodeKeyMapping(d); err != nil {
			return dc, err
		}
	}
	return dc, nil
}

func decodeKeyMapping(d *decoder) (config.KeyMapping, error) {
	var km config.KeyMapping
	kind, err := d.u8()
	if err != nil {
		return km, err
	}
	switch config.KeyMappingKind(kind) {
	case config.MappingBase:
		km.Kind = config.MappingBase
		km.Base, err = decodeBaseMapping(d)
		return km, err
	case config.MappingConditional:
		km.Kind = config.MappingConditional
		if km.Condition, err = decodeCondition(d); err != nil {
			return km, err
		}
		n, err := d.count()
		if err != nil {
			return km, err
		}
		km.Mappings = make([]config.BaseKeyMapping, n)
		for i := range km.Mappings {
			if km.Mappings[i], err = decodeBaseMapping(d); err != nil {
				return km, err
			}
		}
		return km, nil
	default:
		return km, fmt.Errorf("invalid KeyMapping tag %d", kind)
	}
}

func decodeBaseMapping(d *decoder) (config.BaseKeyMapping, error) {
	var m config.BaseKeyMapping
	kind, err := d.u8()
	if err != nil {
		return m, err
	}
	m.Kind = config.BaseKeyMappingKind(kind)

	if m.From, err = d.code(); err != nil {
		return m, err
	}

	switch m.Kind {
	case config.KindSimple:
		m.To, err = d.code()
	case config.KindModifier, config.KindLock:
		m.BitID, err = d.u8()
	case config.KindTapHold:
		if m.Tap, err = d.code(); err != nil {
			return m, err
		}
		if m.HoldModifier, err = d.u8(); err != nil {
			return m, err
		}
		m.ThresholdUs, err = d.u32()
	case config.KindModifiedOutput:
		if m.To, err = d.code(); err != nil {
			return m, err
		}
		if m.Shift, err = d.boolean(); err != nil {
			return m, err
		}
		if m.Ctrl, err = d.boolean(); err != nil {
			return m, err
		}
		if m.Alt, err = d.boolean(); err != nil {
			return m, err
		}
		m.Win, err = d.boolean()
	default:
		return m, fmt.Errorf("invalid BaseKeyMapping tag %d", kind)
	}
	return m, err
}

func decodeCondition(d *decoder) (config.Condition, error) {
	var c config.Condition
	kind, err := d.u8()
	if err != nil {
		return c, err
	}
	c.Kind = config.ConditionKind(kind)

	switch c.Kind {
	case config.CondModifierActive, config.CondLockActive:
		c.ID, err = d.u8()
	case config.CondAllActive, config.CondNotActive:
		n, cErr := d.count()
		if cErr != nil {
			return c, cErr
		}
		c.Items = make([]config.ConditionItem, n)
		for i := range c.Items {
			kindByte, iErr := d.u8()
			if iErr != nil {
				return c, iErr
			}
			id, iErr := d.u8()
			if iErr != nil {
				return c, iErr
			}
			c.Items[i] = config.ConditionItem{Kind: config.ConditionKind(kindByte), ID: id}
		}
	default:
		return c, fmt.Errorf("invalid Condition tag %d", kind)
	}
	return c, err
}
