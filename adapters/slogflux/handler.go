// Package slogflux bridges log/slog into the delivery engine: records
// become wire entries with the record message as payload and flattened
// attributes as metadata.
//
//	c, _ := client.New(tr, client.DefaultBatchConfig())
//	h, _ := slogflux.NewHandler(c, slogflux.Options{Source: "checkout"})
//	slog.SetDefault(slog.New(h))
package slogflux

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	logflux "github.com/logflux-io/logflux-go-sdk"
	"github.com/logflux-io/logflux-go-sdk/wire"
)

// Adder is the sink records are handed to. *client.Client satisfies it.
type Adder interface {
	Add(e *wire.LogEntry) error
}

// Options configures a Handler.
type Options struct {
	// Source labels every entry produced by this handler. Required.
	Source string
	// Level is the minimum record level to forward. Defaults to
	// slog.LevelInfo.
	Level slog.Leveler
}

// Handler is a slog.Handler that forwards records to a delivery client.
// Handlers derived via WithAttrs and WithGroup share the client; each
// carries its own pre-qualified attribute set.
type Handler struct {
	sink   Adder
	source string
	level  slog.Leveler
	attrs  []attrPair
	groups []string
}

type attrPair struct {
	key   string
	value string
}

// NewHandler builds a Handler delivering to sink.
func NewHandler(sink Adder, opts Options) (*Handler, error) {
	if sink == nil {
		return nil, &logflux.ConfigurationError{Field: "sink", Reason: "must not be nil"}
	}
	if opts.Source == "" {
		return nil, &logflux.ConfigurationError{Field: "source", Reason: "must not be empty"}
	}
	return &Handler{
		sink:   sink,
		source: opts.Source,
		level:  opts.Level,
	}, nil
}

// Enabled reports whether records at level should be forwarded.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

// Handle converts the record into a wire entry and adds it to the
// client. Delivery happens on the client's schedule; Handle never
// blocks on the network.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	e := wire.NewEntry(h.source, record.Message).WithLevel(mapLevel(record.Level))
	if !record.Time.IsZero() {
		e = e.WithTimestamp(record.Time)
	}
	for _, a := range h.attrs {
		e = e.WithMetadata(a.key, a.value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		for _, p := range flattenAttr(h.groups, attr) {
			e = e.WithMetadata(p.key, p.value)
		}
		return true
	})
	return h.sink.Add(e)
}

// WithAttrs returns a handler whose entries carry the given attributes,
// qualified by the currently open groups.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := h.clone()
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, flattenAttr(h.groups, attr)...)
	}
	return derived
}

// WithGroup returns a handler that qualifies subsequent attribute keys
// with name, slog's dotted-group convention.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	derived := h.clone()
	derived.groups = append(derived.groups, name)
	return derived
}

func (h *Handler) clone() *Handler {
	return &Handler{
		sink:   h.sink,
		source: h.source,
		level:  h.level,
		attrs:  append([]attrPair(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

// flattenAttr resolves an attribute into dotted-key string pairs.
// Group attributes recurse; empty groups vanish, per slog semantics.
func flattenAttr(groups []string, attr slog.Attr) []attrPair {
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		members := attr.Value.Group()
		if len(members) == 0 {
			return nil
		}
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		var out []attrPair
		for _, member := range members {
			out = append(out, flattenAttr(inner, member)...)
		}
		return out
	}
	if attr.Equal(slog.Attr{}) {
		return nil
	}
	key := attr.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	return []attrPair{{key: key, value: valueString(attr.Value)}}
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format("2006-01-02T15:04:05.999999999Z07:00")
	default:
		return fmt.Sprintf("%v", v.Any())
	}
}

// mapLevel converts slog levels to the wire protocol's syslog-style
// range. Levels above slog.LevelError map to critical.
func mapLevel(level slog.Level) wire.Level {
	switch {
	case level < slog.LevelInfo:
		return wire.LevelDebug
	case level < slog.LevelWarn:
		return wire.LevelInfo
	case level < slog.LevelError:
		return wire.LevelWarning
	case level < slog.LevelError+4:
		return wire.LevelError
	default:
		return wire.LevelCritical
	}
}
