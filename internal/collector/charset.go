package collector

import "strings"

// sanitizeUTF8 is the Collector-side half of spec §4.5's "every field's
// string payload must be transliterated from the engine's system charset
// to UTF-8 before being written." The engine charsets this subsystem
// actually distinguishes (engine.Charset) are already ASCII-compatible in
// practice (NONE, the engine's metadata charset, and UTF8 itself); the
// one real risk at the wire-encoding boundary is a stray invalid byte
// sequence making it into a DumpField the decoder can't safely treat as
// UTF-8. strings.ToValidUTF8 is the direct stdlib tool for that.
func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}
