package command

import (
	"strings"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// Text is a built command: path segments and query options. It never
// starts with "/".
type Text struct {
	Segments []string
	Params   []Param
}

// String returns the command text unescaped, the form used in tests and
// logs: Transport/Ships?$filter=ShipName eq 'Titanic'.
func (t Text) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Segments, "/"))
	for i, p := range t.Params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.Name)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}

// URI returns the command text percent-encoded for a request line, to be
// appended to the service root.
func (t Text) URI() string {
	var b strings.Builder
	for i, seg := range t.Segments {
		if i > 0 {
			b.WriteByte('/')
		}
		escape(&b, seg, segmentSafe)
	}
	for i, p := range t.Params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		escape(&b, p.Name, querySafe)
		b.WriteByte('=')
		escape(&b, p.Value, querySafe)
	}
	return b.String()
}

// Key returns the content-addressed key of the command text.
func (t Text) Key() string {
	return ir.CommandKey(t.String())
}

// IsZero reports whether t is the zero Text.
func (t Text) IsZero() bool {
	return len(t.Segments) == 0 && len(t.Params) == 0
}

// Characters left unescaped besides ALPHA / DIGIT / "-._~" (RFC 3986).
const (
	segmentSafe = "!$&'()*+,;=:@"
	querySafe   = "!$'()*,;:@/?"
)

const upperhex = "0123456789ABCDEF"

func escape(b *strings.Builder, s, safe string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}
