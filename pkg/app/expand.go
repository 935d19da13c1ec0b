package app

import (
	"os"
	"strings"
)

// LookupFunc resolves an environment variable; os.LookupEnv by default.
type LookupFunc func(name string) (string, bool)

// ExpandEnv replaces $NAME and ${NAME} with the variable's value, or with
// nothing when it is unset. A $ that does not start a reference is kept,
// as is an unterminated ${. Output is not rescanned.
func ExpandEnv(s string, lookup LookupFunc) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if strings.IndexByte(s, '$') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		j := strings.IndexByte(s[i:], '$')
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+j])
		i += j + 1 // past '$'

		if i < len(s) && s[i] == '{' {
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				b.WriteByte('$')
				continue
			}
			name := s[i+1 : i+1+end]
			if v, ok := lookup(name); ok {
				b.WriteString(v)
			}
			i += end + 2
			continue
		}

		n := nameLen(s[i:])
		if n == 0 {
			b.WriteByte('$')
			continue
		}
		if v, ok := lookup(s[i : i+n]); ok {
			b.WriteString(v)
		}
		i += n
	}
	return b.String()
}

func nameLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			n++
			continue
		}
		break
	}
	return n
}
