package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/reflectd/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redactedValue = "[REDACTED]"

// secretMarshaler wraps config.Secret for Zap object marshaling.
type secretMarshaler struct {
	key string
	val config.Secret
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (s *secretMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString(s.key, fmt.Sprintf("[REDACTED:%d]", len(s.val.Value())))
	return nil
}

// Secret creates a Zap field for config.Secret with a redaction indicator.
func Secret(key string, val config.Secret) zap.Field {
	return zap.Object(key, &secretMarshaler{key: key, val: val})
}

// RedactedString creates a Zap field with redacted value and length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactionFilter holds the compiled redaction rules shared by encoder clones.
type redactionFilter struct {
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

func newRedactionFilter(cfg RedactionConfig) (*redactionFilter, error) {
	f := &redactionFilter{keys: make(map[string]struct{}, len(cfg.Fields))}
	for _, name := range cfg.Fields {
		f.keys[strings.ToLower(name)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		if len(p) > maxPatternLength {
			return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLength, p)
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

func (f *redactionFilter) matchKey(key string) bool {
	if f == nil {
		return false
	}
	_, ok := f.keys[strings.ToLower(key)]
	return ok
}

func (f *redactionFilter) matchValue(val string) bool {
	if f == nil {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(val) {
			return true
		}
	}
	return false
}

// RedactingEncoder wraps a zapcore.Encoder to redact sensitive fields by
// field name and string values by pattern.
type RedactingEncoder struct {
	zapcore.Encoder
	filter *redactionFilter
}

// NewRedactingEncoder wraps an encoder with redaction rules.
// Returns an error if any redaction pattern fails to compile.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	if !cfg.Enabled {
		return &RedactingEncoder{Encoder: base}, nil
	}
	filter, err := newRedactionFilter(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, filter: filter}, nil
}

// AddString redacts sensitive field names and value patterns.
func (e *RedactingEncoder) AddString(key, val string) {
	if e.filter.matchKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return
	}
	if e.filter.matchValue(val) {
		e.Encoder.AddString(key, "[REDACTED:pattern]")
		return
	}
	e.Encoder.AddString(key, val)
}

// AddByteString redacts sensitive field names.
func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.filter.matchKey(key) {
		e.Encoder.AddByteString(key, []byte(redactedValue))
		return
	}
	e.Encoder.AddByteString(key, val)
}

// AddBinary redacts sensitive field names.
func (e *RedactingEncoder) AddBinary(key string, val []byte) {
	if e.filter.matchKey(key) {
		e.Encoder.AddBinary(key, []byte(redactedValue))
		return
	}
	e.Encoder.AddBinary(key, val)
}

// AddReflected redacts sensitive field names. The entire reflected value is
// replaced when the key is sensitive; deep inspection is not attempted.
func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if e.filter.matchKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

// AddArray redacts sensitive field names.
func (e *RedactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.filter.matchKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

// AddObject redacts sensitive field names.
func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.filter.matchKey(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// Clone creates a copy of the encoder sharing the immutable filter.
func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{
		Encoder: e.Encoder.Clone(),
		filter:  e.filter,
	}
}
