// Package util contiene helpers chicos sin dependencias internas.
package util

import "strings"

// MaskEmail enmascara un email para logs: "juan@example.com" -> "j…@e….com".
// Usernames sin "@" (initiate_auth acepta usernames pelados) conservan
// solo el primer y último caracter.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}

// MaskToken deja visibles solo los primeros 8 caracteres de un token opaco.
func MaskToken(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "***"
	}
	return s[:8] + "…"
}
