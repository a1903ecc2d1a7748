package gen

import (
	"go/token"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

// acronyms are kept upper case in Go identifiers.
var acronyms = map[string]bool{
	"ACL": true, "API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true,
	"EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true, "ID": true,
	"IP": true, "JSON": true, "LHS": true, "QPS": true, "RAM": true, "RHS": true,
	"RPC": true, "SLA": true, "SMTP": true, "SQL": true, "SSH": true, "TCP": true,
	"TLS": true, "TTL": true, "UDP": true, "UI": true, "UID": true, "UUID": true,
	"URI": true, "URL": true, "UTF8": true, "VM": true, "XML": true, "XMPP": true,
	"XSRF": true, "XSS": true,
}

// snake converts the given name to snake_case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
func snake(s string) string {
	var (
		b     strings.Builder
		runes = []rune(s)
	)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && runes[i-1] != '_' {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// words splits a name on separators and case changes.
func words(s string) []string {
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '.' {
			return '_'
		}
		return r
	}, snake(s))
	var ws []string
	for _, w := range strings.Split(s, "_") {
		if w != "" {
			ws = append(ws, w)
		}
	}
	return ws
}

// pascal converts the given name to PascalCase, upper-casing acronyms.
//
//	user_info => UserInfo
//	user_id   => UserID
//	createdAt => CreatedAt
func pascal(s string) string {
	var b strings.Builder
	for _, w := range words(s) {
		if u := strings.ToUpper(w); acronyms[u] {
			b.WriteString(u)
			continue
		}
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// receiver returns the receiver name of the given type.
//
//	User       => u
//	BlogPost   => bp
//	HTTPClient => hc
func receiver(s string) string {
	var b strings.Builder
	for _, w := range words(strings.TrimPrefix(s, "*")) {
		b.WriteRune([]rune(w)[0])
	}
	r := b.String()
	if r == "" || token.IsKeyword(r) {
		return "_m"
	}
	return r
}

// plural returns the plural form of a Go identifier.
func plural(s string) string {
	p := inflect.Pluralize(s)
	if p == s {
		p += "Slice"
	}
	return p
}

// packageName derives a Go package name from the output directory.
func packageName(dir string) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, filepath.Base(dir))
	if !token.IsIdentifier(base) || token.IsKeyword(base) {
		return "models"
	}
	return base
}
