package cose

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Authenticator data flag bits.
const (
	FlagUserPresent        = 0x01
	FlagUserVerified       = 0x04
	FlagAttestedCredential = 0x40
)

var ErrAuthDataTooShort = errors.New("cose: authenticator data too short")

// AuthenticatorData is the parsed fixed-layout blob every assertion and
// attestation carries: rpIdHash(32) flags(1) counter(4), optionally
// followed by attested credential data when the AT flag is set.
type AuthenticatorData struct {
	RPIDHash []byte
	Flags    byte
	Counter  uint32

	// Set only when FlagAttestedCredential is present.
	AAGUID       []byte
	CredentialID []byte
	PublicKey    []byte
}

func (a *AuthenticatorData) UserPresent() bool  { return a.Flags&FlagUserPresent != 0 }
func (a *AuthenticatorData) UserVerified() bool { return a.Flags&FlagUserVerified != 0 }

// ParseAuthenticatorData decodes the raw authenticator data. The COSE
// public key at the tail is kept as raw CBOR bytes so the caller can
// store it verbatim.
func ParseAuthenticatorData(data []byte) (*AuthenticatorData, error) {
	if len(data) < 37 {
		return nil, ErrAuthDataTooShort
	}

	out := &AuthenticatorData{
		RPIDHash: data[:32],
		Flags:    data[32],
		Counter:  binary.BigEndian.Uint32(data[33:37]),
	}

	if out.Flags&FlagAttestedCredential == 0 {
		return out, nil
	}

	rest := data[37:]
	if len(rest) < 18 {
		return nil, ErrAuthDataTooShort
	}
	out.AAGUID = rest[:16]
	credLen := int(binary.BigEndian.Uint16(rest[16:18]))
	rest = rest[18:]
	if len(rest) < credLen {
		return nil, ErrAuthDataTooShort
	}
	out.CredentialID = rest[:credLen]
	rest = rest[credLen:]

	// The COSE key is the next CBOR item; extensions may follow it.
	var key cbor.RawMessage
	if _, err := cbor.UnmarshalFirst(rest, &key); err != nil {
		return nil, fmt.Errorf("cose: decode attested key: %w", err)
	}
	out.PublicKey = []byte(key)
	return out, nil
}

// AttestationObject is the registration payload wrapping authenticator
// data with an attestation statement.
type AttestationObject struct {
	AuthData []byte          `cbor:"authData"`
	Fmt      string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
}

// ParseAttestationObject decodes the CBOR attestation object produced
// during credential creation.
func ParseAttestationObject(data []byte) (*AttestationObject, error) {
	var obj AttestationObject
	if err := cbor.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("cose: decode attestation object: %w", err)
	}
	if len(obj.AuthData) == 0 {
		return nil, errors.New("cose: attestation object missing authData")
	}
	return &obj, nil
}
