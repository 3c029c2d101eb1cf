// Package receiver ingests log records from OTLP producers (gRPC and
// HTTP) and from stdin, converting them to wire entries for the agent
// client.
package receiver

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"github.com/logflux-io/logflux-go-sdk/wire"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
)

// serviceNameKey is the OTLP resource attribute that names the
// producing service. It becomes the entry source.
const serviceNameKey = "service.name"

// Sink consumes the entries a receiver produces. *client.Client
// satisfies it.
type Sink interface {
	Add(e *wire.LogEntry) error
}

// entriesFromRequest flattens an OTLP logs export request into wire
// entries. Records without a usable body are dropped; the count of
// dropped records is returned alongside the entries.
func entriesFromRequest(req *collogspb.ExportLogsServiceRequest, defaultSource string) ([]wire.LogEntry, int) {
	var entries []wire.LogEntry
	dropped := 0

	for _, rl := range req.GetResourceLogs() {
		source := defaultSource
		var resourceMeta map[string]string

		if res := rl.GetResource(); res != nil {
			for _, kv := range res.GetAttributes() {
				if kv.GetKey() == serviceNameKey {
					if s := kv.GetValue().GetStringValue(); s != "" {
						source = s
					}
					continue
				}
				if resourceMeta == nil {
					resourceMeta = make(map[string]string)
				}
				resourceMeta[kv.GetKey()] = attrString(kv.GetValue())
			}
		}

		for _, sl := range rl.GetScopeLogs() {
			for _, rec := range sl.GetLogRecords() {
				e, ok := entryFromRecord(rec, source, resourceMeta)
				if !ok {
					dropped++
					continue
				}
				entries = append(entries, *e)
			}
		}
	}

	return entries, dropped
}

// entryFromRecord converts one OTLP log record. Records whose body is
// absent or empty have nothing to forward and report ok=false.
func entryFromRecord(rec *logspb.LogRecord, source string, resourceMeta map[string]string) (*wire.LogEntry, bool) {
	payload, isJSON, ok := bodyPayload(rec.GetBody())
	if !ok {
		return nil, false
	}

	var e *wire.LogEntry
	if isJSON {
		e = wire.NewJSONEntry(source, payload)
	} else {
		e = wire.NewEntry(source, payload)
	}

	e.WithLevel(levelFromSeverity(rec.GetSeverityNumber()))

	if ts := recordTime(rec); !ts.IsZero() {
		e.WithTimestamp(ts)
	}

	for k, v := range resourceMeta {
		e.WithMetadata(k, v)
	}
	for _, kv := range rec.GetAttributes() {
		e.WithMetadata(kv.GetKey(), attrString(kv.GetValue()))
	}

	return e, true
}

// bodyPayload renders an OTLP body value as an entry payload. String
// bodies pass through untouched; structured bodies become JSON.
func bodyPayload(body *commonpb.AnyValue) (payload string, isJSON bool, ok bool) {
	if body == nil || body.GetValue() == nil {
		return "", false, false
	}
	if _, isString := body.GetValue().(*commonpb.AnyValue_StringValue); isString {
		s := body.GetStringValue()
		return s, false, s != ""
	}
	raw, err := json.Marshal(anyValueToInterface(body))
	if err != nil {
		return "", false, false
	}
	return string(raw), true, true
}

// recordTime picks the record timestamp, preferring the producer's
// event time over the collection-side observed time. Zero means the
// record carried neither.
func recordTime(rec *logspb.LogRecord) time.Time {
	if ns := rec.GetTimeUnixNano(); ns != 0 {
		return time.Unix(0, int64(ns))
	}
	if ns := rec.GetObservedTimeUnixNano(); ns != 0 {
		return time.Unix(0, int64(ns))
	}
	return time.Time{}
}

// levelFromSeverity maps OTLP severity numbers (1..24) onto syslog
// levels, inverting the syslog mapping in the OTLP log data model:
// TRACE and DEBUG collapse to debug, the INFO block splits into info
// and notice, WARN maps to warning, and the ERROR/FATAL blocks spread
// across error, critical, alert, and emergency.
func levelFromSeverity(n logspb.SeverityNumber) wire.Level {
	switch {
	case n >= 21: // FATAL..FATAL4
		return wire.LevelEmergency
	case n >= 19: // ERROR3..ERROR4
		return wire.LevelAlert
	case n >= 18: // ERROR2
		return wire.LevelCritical
	case n >= 17: // ERROR
		return wire.LevelError
	case n >= 13: // WARN..WARN4
		return wire.LevelWarning
	case n >= 10: // INFO2..INFO4
		return wire.LevelNotice
	case n >= 9: // INFO
		return wire.LevelInfo
	case n >= 1: // TRACE..DEBUG4
		return wire.LevelDebug
	default: // unspecified
		return wire.LevelInfo
	}
}

// attrString renders an attribute value for entry metadata. Scalars
// print naturally, bytes are base64, nested values become JSON.
func attrString(v *commonpb.AnyValue) string {
	if v == nil {
		return ""
	}
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_BoolValue:
		return strconv.FormatBool(val.BoolValue)
	case *commonpb.AnyValue_IntValue:
		return strconv.FormatInt(val.IntValue, 10)
	case *commonpb.AnyValue_DoubleValue:
		return strconv.FormatFloat(val.DoubleValue, 'g', -1, 64)
	case *commonpb.AnyValue_BytesValue:
		return base64.StdEncoding.EncodeToString(val.BytesValue)
	default:
		raw, err := json.Marshal(anyValueToInterface(v))
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// anyValueToInterface converts an OTLP value into plain Go values for
// JSON encoding.
func anyValueToInterface(v *commonpb.AnyValue) interface{} {
	if v == nil {
		return nil
	}
	switch val := v.GetValue().(type) {
	case *commonpb.AnyValue_StringValue:
		return val.StringValue
	case *commonpb.AnyValue_BoolValue:
		return val.BoolValue
	case *commonpb.AnyValue_IntValue:
		return val.IntValue
	case *commonpb.AnyValue_DoubleValue:
		return val.DoubleValue
	case *commonpb.AnyValue_BytesValue:
		return val.BytesValue
	case *commonpb.AnyValue_ArrayValue:
		out := make([]interface{}, 0, len(val.ArrayValue.GetValues()))
		for _, item := range val.ArrayValue.GetValues() {
			out = append(out, anyValueToInterface(item))
		}
		return out
	case *commonpb.AnyValue_KvlistValue:
		out := make(map[string]interface{}, len(val.KvlistValue.GetValues()))
		for _, kv := range val.KvlistValue.GetValues() {
			out[kv.GetKey()] = anyValueToInterface(kv.GetValue())
		}
		return out
	default:
		return nil
	}
}
