package submission

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// Entry is one answer in a payload.
type Entry struct {
	Tag   string
	Value any
}

// Payload is the normalized answer set of one submit attempt. It keeps the
// declaration order of the form and marshals as a JSON object.
type Payload struct {
	entries []Entry
}

func (p *Payload) set(tag string, value any) {
	for i := range p.entries {
		if p.entries[i].Tag == tag {
			p.entries[i].Value = value
			return
		}
	}
	p.entries = append(p.entries, Entry{Tag: tag, Value: value})
}

// Len returns the number of answers.
func (p Payload) Len() int {
	return len(p.entries)
}

// Entries returns the answers in order.
func (p Payload) Entries() []Entry {
	return append([]Entry(nil), p.entries...)
}

// Tags returns the answered tags in order.
func (p Payload) Tags() []string {
	out := make([]string, 0, len(p.entries))
	for _, entry := range p.entries {
		out = append(out, entry.Tag)
	}
	return out
}

// Get returns the answer for tag.
func (p Payload) Get(tag string) (any, bool) {
	for _, entry := range p.entries {
		if entry.Tag == tag {
			return entry.Value, true
		}
	}
	return nil, false
}

// Has reports whether tag was answered.
func (p Payload) Has(tag string) bool {
	_, ok := p.Get(tag)
	return ok
}

// Map returns the answers as a plain map.
func (p Payload) Map() map[string]any {
	out := make(map[string]any, len(p.entries))
	for _, entry := range p.entries {
		out[entry.Tag] = entry.Value
	}
	return out
}

// MarshalJSON encodes the answers as an object in declaration order.
func (p Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range p.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := sonic.Marshal(entry.Tag)
		if err != nil {
			return nil, fmt.Errorf("submission: encode tag %q: %w", entry.Tag, err)
		}
		value, err := sonic.Marshal(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("submission: encode %q: %w", entry.Tag, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Envelope is the request body of the submit operation.
type Envelope struct {
	Answers Payload `json:"answers"`
}

// Envelope wraps the payload as {"answers": {...}}.
func (p Payload) Envelope() Envelope {
	return Envelope{Answers: p}
}
