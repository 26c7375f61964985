package token

import (
	"encoding/json"
	"time"
)

// Kind distinguishes the two token families a session issues.
type Kind string

const (
	KindAccess  Kind = "ACCESS"
	KindRefresh Kind = "REFRESH"
)

// Claims is the payload carried inside an encrypted token.
type Claims struct {
	Subject  string   `json:"sub"`
	TokenID  string   `json:"jti"`
	IssuedAt int64    `json:"iat"`
	Expiry   int64    `json:"exp"`
	Kind     Kind     `json:"kind"`
	ACR      string   `json:"acr,omitempty"`
	AMR      []string `json:"amr,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	DemoMode bool     `json:"demoMode"`
}

// ExpiresAt returns the expiry as a time.Time.
func (c *Claims) ExpiresAt() time.Time { return time.Unix(c.Expiry, 0) }

// MarshalJSON writes amr as numeric method codes. The in-memory claims
// keep method names; only the encrypted payload carries codes.
func (c Claims) MarshalJSON() ([]byte, error) {
	type plain Claims
	return json.Marshal(struct {
		plain
		AMR []int `json:"amr,omitempty"`
	}{plain(c), EncodeMethods(c.AMR)})
}

// UnmarshalJSON reads amr method codes back into names, dropping codes
// this build does not know.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type plain Claims
	aux := struct {
		*plain
		AMR []int `json:"amr,omitempty"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.AMR) > 0 {
		c.AMR = DecodeMethods(aux.AMR)
	} else {
		c.AMR = nil
	}
	return nil
}

// methodCodes maps authentication method references onto stable numeric
// codes carried on the wire. Codes were assigned at first use and must
// never be renumbered.
var methodCodes = map[string]int{
	"password":     1,
	"sms_otp":      2,
	"passkeys":     3,
	"totp":         4,
	"email_otp":    5,
	"backup_codes": 6,
}

var methodNames = func() map[int]string {
	m := make(map[int]string, len(methodCodes))
	for name, code := range methodCodes {
		m[code] = name
	}
	return m
}()

// EncodeMethods converts method names to their numeric codes. Unknown
// methods are dropped.
func EncodeMethods(methods []string) []int {
	out := make([]int, 0, len(methods))
	for _, m := range methods {
		if code, ok := methodCodes[m]; ok {
			out = append(out, code)
		}
	}
	return out
}

// DecodeMethods converts numeric codes back to method names. Unknown
// codes are dropped.
func DecodeMethods(codes []int) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if name, ok := methodNames[c]; ok {
			out = append(out, name)
		}
	}
	return out
}

// CalculateACR derives the authentication context class from the set of
// completed methods.
//
//	"0"  partial login, more factors still required
//	"1"  a single knowledge or possession factor
//	"2"  two distinct factors, or a passkey alone
//	"3"  a passkey combined with another factor
func CalculateACR(methods []string, partial bool) string {
	if partial {
		return "0"
	}
	hasPasskey := false
	others := 0
	for _, m := range methods {
		if m == "passkeys" {
			hasPasskey = true
		} else if _, ok := methodCodes[m]; ok {
			others++
		}
	}
	switch {
	case hasPasskey && others > 0:
		return "3"
	case hasPasskey:
		return "2"
	case others >= 2:
		return "2"
	default:
		return "1"
	}
}
