// Package wire defines the message types the LogFlux agent speaks:
// log entries, entry batches, and the ping/authenticate request and
// response shapes. Every message is serialized as one JSON document per
// line over a byte-stream socket.
package wire

import (
	"fmt"
	"time"

	logflux "github.com/logflux-io/logflux-go-sdk"
)

// ProtocolVersion is the wire protocol version stamped on every message.
const ProtocolVersion = "1.0"

// EntryOverheadBytes is the fixed per-entry overhead used for memory
// accounting, covering the JSON envelope and the fields outside payload,
// source, and metadata.
const EntryOverheadBytes = 200

// Level is a syslog-style severity, 1 (Emergency) through 8 (Debug).
type Level int

const (
	LevelEmergency Level = 1
	LevelAlert     Level = 2
	LevelCritical  Level = 3
	LevelError     Level = 4
	LevelWarning   Level = 5
	LevelNotice    Level = 6
	LevelInfo      Level = 7
	LevelDebug     Level = 8
)

// Valid reports whether l is inside the protocol's 1..8 range.
func (l Level) Valid() bool {
	return l >= LevelEmergency && l <= LevelDebug
}

func (l Level) String() string {
	switch l {
	case LevelEmergency:
		return "emergency"
	case LevelAlert:
		return "alert"
	case LevelCritical:
		return "critical"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNotice:
		return "notice"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name to its Level. It accepts the names
// String returns, plus the common aliases "warn" and "err".
func ParseLevel(s string) (Level, error) {
	switch s {
	case "emergency":
		return LevelEmergency, nil
	case "alert":
		return LevelAlert, nil
	case "critical":
		return LevelCritical, nil
	case "error", "err":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "notice":
		return LevelNotice, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return 0, &logflux.ValidationError{Field: "logLevel", Reason: fmt.Sprintf("unknown level %q", s)}
}

// EntryType discriminates entry kinds. Log entries are the only kind the
// protocol currently defines.
type EntryType int

// EntryTypeLog marks a plain log entry.
const EntryTypeLog EntryType = 1

// PayloadType describes how the agent should interpret an entry payload.
type PayloadType string

const (
	// PayloadTypeGeneric is an opaque text payload.
	PayloadTypeGeneric PayloadType = "generic"
	// PayloadTypeGenericJSON marks the payload as a JSON document.
	PayloadTypeGenericJSON PayloadType = "generic_json"
)

// LogEntry is a single log record bound for the agent.
//
// Entries are immutable once handed to a client; the With helpers exist
// for the construction phase only.
type LogEntry struct {
	// Version is the protocol version, normally ProtocolVersion.
	Version string `json:"version,omitempty"`
	// Payload is the log line or document body.
	Payload string `json:"payload"`
	// Source identifies the producing application or component.
	Source string `json:"source"`
	// Timestamp is an RFC3339 UTC timestamp. Empty means the agent
	// assigns arrival time.
	Timestamp string `json:"timestamp,omitempty"`
	// PayloadType tells the agent how to treat Payload.
	PayloadType PayloadType `json:"payloadType,omitempty"`
	// Metadata carries free-form string key/value pairs.
	Metadata map[string]string `json:"metadata,omitempty"`
	// EntryType is the entry kind, EntryTypeLog for log records.
	EntryType EntryType `json:"entryType"`
	// LogLevel is the syslog-style severity, 1..8.
	LogLevel Level `json:"logLevel"`
}

// NewEntry builds a log entry with the usual defaults: protocol version,
// generic payload type, Info level, and the current UTC time.
func NewEntry(source, payload string) *LogEntry {
	return &LogEntry{
		Version:     ProtocolVersion,
		Payload:     payload,
		Source:      source,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		PayloadType: PayloadTypeGeneric,
		EntryType:   EntryTypeLog,
		LogLevel:    LevelInfo,
	}
}

// NewJSONEntry builds an entry whose payload is a JSON document.
func NewJSONEntry(source, payload string) *LogEntry {
	e := NewEntry(source, payload)
	e.PayloadType = PayloadTypeGenericJSON
	return e
}

// WithLevel sets the severity and returns the entry.
func (e *LogEntry) WithLevel(l Level) *LogEntry {
	e.LogLevel = l
	return e
}

// WithTimestamp sets the timestamp from t, normalized to RFC3339 UTC.
func (e *LogEntry) WithTimestamp(t time.Time) *LogEntry {
	e.Timestamp = t.UTC().Format(time.RFC3339)
	return e
}

// WithMetadata adds one metadata pair, allocating the map on first use.
func (e *LogEntry) WithMetadata(key, value string) *LogEntry {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// Validate checks the entry against the wire contract. Violations are
// reported as *logflux.ValidationError.
func (e *LogEntry) Validate() error {
	if e.Source == "" {
		return &logflux.ValidationError{Field: "source", Reason: "must not be empty"}
	}
	if e.Payload == "" {
		return &logflux.ValidationError{Field: "payload", Reason: "must not be empty"}
	}
	if !e.LogLevel.Valid() {
		return &logflux.ValidationError{Field: "logLevel", Reason: fmt.Sprintf("%d outside 1..8", int(e.LogLevel))}
	}
	if e.EntryType != EntryTypeLog {
		return &logflux.ValidationError{Field: "entryType", Reason: fmt.Sprintf("unknown entry type %d", int(e.EntryType))}
	}
	switch e.PayloadType {
	case "", PayloadTypeGeneric, PayloadTypeGenericJSON:
	default:
		return &logflux.ValidationError{Field: "payloadType", Reason: fmt.Sprintf("unknown payload type %q", string(e.PayloadType))}
	}
	if e.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, e.Timestamp); err != nil {
			return &logflux.ValidationError{Field: "timestamp", Reason: "not an RFC3339 timestamp"}
		}
	}
	return nil
}

// EstimatedSize is the entry's in-buffer memory estimate: payload and
// source bytes, metadata key/value bytes, plus EntryOverheadBytes. The
// client's memory accounting sums exactly this number.
func (e *LogEntry) EstimatedSize() int {
	size := len(e.Payload) + len(e.Source) + EntryOverheadBytes
	for k, v := range e.Metadata {
		size += len(k) + len(v)
	}
	return size
}

func (e *LogEntry) message() {}
