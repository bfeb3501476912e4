// Package claims decodifica, SIN verificar, el payload de un bearer token (JWT).
//
// IMPORTANTE: nada de lo que devuelve este paquete es confiable. No se valida la
// firma, ni exp/nbf, ni el issuer. El resultado sirve para mostrar datos del
// usuario recién autenticado y nunca debe usarse para decisiones de acceso.
package claims

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Nombres de claims reconocidos en el id token.
const (
	Sub           = "sub"
	Email         = "email"
	EmailVerified = "email_verified"
	GivenName     = "given_name"
	FamilyName    = "family_name"
	PhoneNumber   = "phone_number"
)

// Claims es el mapping crudo del payload del token.
type Claims map[string]any

// Extract decodifica el segmento del medio de token. Es total: ante cualquier
// falla (menos de 2 segmentos, base64 inválido, UTF-8 inválido, JSON inválido,
// payload que no es objeto) devuelve un mapping vacío, nunca nil.
func Extract(token string) Claims {
	seg, ok := payloadSegment(token)
	if !ok {
		return Claims{}
	}
	raw, ok := decodeSegment(seg)
	if !ok {
		return Claims{}
	}
	if !utf8.Valid(raw) {
		return Claims{}
	}
	out, ok := parseObject(raw)
	if !ok {
		return Claims{}
	}
	return out
}

func payloadSegment(token string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}

// decodeSegment repone el padding faltante y decodifica con el alfabeto URL-safe.
func decodeSegment(seg string) ([]byte, bool) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return nil, false
	}
	if m := len(seg) % 4; m != 0 {
		seg += strings.Repeat("=", 4-m)
	}
	b, err := base64.URLEncoding.DecodeString(seg)
	if err != nil {
		return nil, false
	}
	return b, true
}

func parseObject(raw []byte) (Claims, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Claims(obj), true
}

// Get devuelve el valor crudo de un claim y si está presente.
func (c Claims) Get(name string) (any, bool) {
	v, ok := c[name]
	return v, ok
}

// String devuelve un claim string; nil si falta o no es string.
func (c Claims) String(name string) *string {
	s, ok := c[name].(string)
	if !ok {
		return nil
	}
	return &s
}

// Bool devuelve un claim booleano. Acepta true/false JSON y los strings
// "true"/"false" (algunos proveedores serializan email_verified como string).
func (c Claims) Bool(name string) *bool {
	switch v := c[name].(type) {
	case bool:
		return &v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			b := true
			return &b
		case "false":
			b := false
			return &b
		}
	}
	return nil
}

// Identity es la vista tipada de los claims reconocidos. Los campos ausentes
// quedan en nil y se serializan como null.
type Identity struct {
	Sub           *string `json:"sub"`
	Email         *string `json:"email"`
	EmailVerified *bool   `json:"email_verified"`
	GivenName     *string `json:"given_name"`
	FamilyName    *string `json:"family_name"`
	PhoneNumber   *string `json:"phone_number"`
}

// Identity proyecta los claims reconocidos.
func (c Claims) Identity() Identity {
	return Identity{
		Sub:           c.String(Sub),
		Email:         c.String(Email),
		EmailVerified: c.Bool(EmailVerified),
		GivenName:     c.String(GivenName),
		FamilyName:    c.String(FamilyName),
		PhoneNumber:   c.String(PhoneNumber),
	}
}
