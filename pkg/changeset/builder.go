// Package changeset computes the minimal patch between a form's live values
// and its mount-time snapshot, decides the transport encoding, and turns the
// result into request bytes.
package changeset

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// Encoding names the transport representation chosen for a change-set.
type Encoding string

const (
	// EncodingStructured means the change-set is directly JSON-serialisable.
	EncodingStructured Encoding = "structured"
	// EncodingMultipart is chosen whenever a binary reference is present.
	EncodingMultipart Encoding = "multipart"
)

// ChangeSet maps dot-path field names to their new values. It contains only
// fields that differ from the snapshot and whose current value is not the
// empty string. Built fresh on every submit attempt.
type ChangeSet map[string]any

// FileRef is an opaque reference to locally selected binary content, such as
// a staff photo or a frame image. The empty value means "no file".
type FileRef struct {
	Name    string
	MIME    string
	Content []byte
}

// IsZero reports whether the reference carries no content.
func (f FileRef) IsZero() bool {
	return f.Name == "" && len(f.Content) == 0
}

// Transform rewrites a field value after the diff decision, immediately
// before it enters the change-set. The diff itself always compares
// untransformed values.
type Transform func(value any) any

// LowercaseString is a common transform for enum-ish fields whose backend
// representation is lower-cased (e.g. staff roles).
func LowercaseString(value any) any {
	if s, ok := value.(string); ok {
		return strings.ToLower(s)
	}
	return value
}

// Builder diffs live values against a snapshot. One builder serves every
// form in the application; per-field variations live in the transform table
// instead of per-page copies of the diff.
type Builder struct {
	transforms map[string]Transform
}

// Option customises a Builder.
type Option func(*Builder)

// WithTransform registers a transform for one field name. The latest
// registration for a name wins.
func WithTransform(name string, fn Transform) Option {
	return func(b *Builder) {
		if name == "" || fn == nil {
			return
		}
		b.transforms[name] = fn
	}
}

// NewBuilder constructs a Builder.
func NewBuilder(options ...Option) *Builder {
	b := &Builder{transforms: make(map[string]Transform)}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build computes the minimal change-set between state and snapshot and the
// transport encoding for it. A key is included iff its serialised current
// value differs from the serialised snapshot value and the current value is
// not the empty string. The encoding is recomputed on every call.
func (b *Builder) Build(state, snapshot map[string]any) (ChangeSet, Encoding) {
	cs := make(ChangeSet)

	keys := make(map[string]struct{}, len(state)+len(snapshot))
	for k := range state {
		keys[k] = struct{}{}
	}
	for k := range snapshot {
		keys[k] = struct{}{}
	}

	for key := range keys {
		current := state[key]
		if s, ok := current.(string); ok && s == "" {
			continue
		}
		if equalValue(current, snapshot[key]) {
			continue
		}
		if fn, ok := b.transforms[key]; ok {
			current = fn(current)
		}
		cs[key] = current
	}

	return cs, chooseEncoding(cs)
}

func chooseEncoding(cs ChangeSet) Encoding {
	for _, value := range cs {
		if ref, ok := value.(FileRef); ok && !ref.IsZero() {
			return EncodingMultipart
		}
		if ref, ok := value.(*FileRef); ok && ref != nil && !ref.IsZero() {
			return EncodingMultipart
		}
	}
	return EncodingStructured
}

// equalValue compares by serialised form: arrays are order-sensitive, plain
// maps are not (JSON encoding sorts map keys). Values that cannot be
// serialised fall back to reflect.DeepEqual.
func equalValue(a, b any) bool {
	aj, aerr := json.Marshal(a)
	bj, berr := json.Marshal(b)
	if aerr != nil || berr != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(aj, bj)
}
