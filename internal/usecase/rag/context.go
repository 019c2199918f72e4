package rag

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/dsc-chiba-u/flexrag/internal/domain/document"
)

// TruncationMarker is appended to field values cut at the length limit.
const TruncationMarker = "..."

// BuildContext renders retrieved documents into a single text blob: one
// header block per document in result order, one "Label: value" line per
// retrievable field present in that document. Text values longer than
// maxFieldLength are truncated to exactly maxFieldLength characters plus
// the marker; sequences and mappings are serialized to compact JSON before
// the same length rule applies. maxFieldLength <= 0 disables truncation.
// The output is deterministic for identical inputs.
func BuildContext(docs []document.Document, retrievable []string, maxFieldLength int) string {
	var b strings.Builder
	for i, doc := range docs {
		writeDocument(&b, doc, retrievable, maxFieldLength, i+1)
	}
	return b.String()
}

// RenderDocuments renders documents for terminal display, blocks separated
// by a blank line. summaryLength <= 0 disables truncation (verbose mode).
func RenderDocuments(docs []document.Document, retrievable []string, summaryLength int) string {
	var b strings.Builder
	for i, doc := range docs {
		writeDocument(&b, doc, retrievable, summaryLength, i+1)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeDocument(b *strings.Builder, doc document.Document, retrievable []string, maxLen, ordinal int) {
	fmt.Fprintf(b, "\n--- Document %d ---\n", ordinal)
	for _, name := range retrievable {
		v := doc.Get(name)
		if !v.Present() {
			continue
		}
		b.WriteString(DisplayLabel(name))
		b.WriteString(": ")
		b.WriteString(renderValue(v.Raw(), maxLen))
		b.WriteByte('\n')
	}
}

// DisplayLabel turns a field name into a human label: underscores become
// spaces, the first character is capitalized.
func DisplayLabel(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	r := []rune(label)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

// renderValue serializes a field value and applies the length rule.
// JSON-decoded documents carry strings, float64 numbers, bools, []any and
// map[string]any; maps marshal with sorted keys, so the output is stable.
func renderValue(raw any, maxLen int) string {
	var s string
	switch v := raw.(type) {
	case nil:
		s = ""
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprint(v)
		} else {
			s = string(data)
		}
	}
	return truncate(s, maxLen)
}

// truncate cuts s to exactly max characters plus the marker. Counted in
// runes: the source data is multibyte and byte slicing would split
// sequences.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + TruncationMarker
}
