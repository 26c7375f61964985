package passkey

import (
	"github.com/go-webauthn/webauthn/protocol"
)

// Wire DTOs follow the WebAuthn JSON shapes so browser credential API
// output can be posted back unmodified. Binary fields ride as base64url
// via protocol.URLEncodedBase64.

type rpEntity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userEntity struct {
	ID          protocol.URLEncodedBase64 `json:"id"`
	Name        string                    `json:"name"`
	DisplayName string                    `json:"displayName"`
}

type credParam struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

type credDescriptor struct {
	Type string                    `json:"type"`
	ID   protocol.URLEncodedBase64 `json:"id"`
}

// CreationOptions is the registration ceremony's begin response.
type CreationOptions struct {
	ChallengeID      string                    `json:"challengeId"`
	Challenge        protocol.URLEncodedBase64 `json:"challenge"`
	RP               rpEntity                  `json:"rp"`
	User             userEntity                `json:"user"`
	PubKeyCredParams []credParam               `json:"pubKeyCredParams"`
	Timeout          int                       `json:"timeout"`
	Attestation      string                    `json:"attestation"`
	ExcludeList      []credDescriptor          `json:"excludeCredentials,omitempty"`
}

// RequestOptions is the authentication ceremony's begin response.
type RequestOptions struct {
	ChallengeID      string                    `json:"challengeId"`
	Challenge        protocol.URLEncodedBase64 `json:"challenge"`
	RPID             string                    `json:"rpId"`
	AllowCredentials []credDescriptor          `json:"allowCredentials,omitempty"`
	Timeout          int                       `json:"timeout"`
	UserVerification string                    `json:"userVerification"`
}

type attestationResponse struct {
	ClientDataJSON    protocol.URLEncodedBase64 `json:"clientDataJSON" binding:"required"`
	AttestationObject protocol.URLEncodedBase64 `json:"attestationObject" binding:"required"`
}

// RegistrationFinishRequest is the registration ceremony's completion
// payload.
type RegistrationFinishRequest struct {
	ChallengeID string                    `json:"challengeId" binding:"required"`
	RawID       protocol.URLEncodedBase64 `json:"rawId" binding:"required"`
	Type        string                    `json:"type"`
	Name        string                    `json:"name"`
	Response    attestationResponse       `json:"response" binding:"required"`
}

type assertionResponse struct {
	ClientDataJSON    protocol.URLEncodedBase64 `json:"clientDataJSON" binding:"required"`
	AuthenticatorData protocol.URLEncodedBase64 `json:"authenticatorData" binding:"required"`
	Signature         protocol.URLEncodedBase64 `json:"signature" binding:"required"`
	UserHandle        protocol.URLEncodedBase64 `json:"userHandle,omitempty"`
}

// AuthenticationFinishRequest is the authentication ceremony's
// completion payload.
type AuthenticationFinishRequest struct {
	ChallengeID string                    `json:"challengeId" binding:"required"`
	RawID       protocol.URLEncodedBase64 `json:"rawId" binding:"required"`
	Response    assertionResponse         `json:"response" binding:"required"`
}

type beginAuthenticationDTO struct {
	UserID string `json:"userId"`
}

// clientData is the parsed clientDataJSON the browser signs over.
type clientData struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	Origin    string `json:"origin"`
}

// CredentialInfo is the API view of a stored credential.
type CredentialInfo struct {
	ID         string                    `json:"id"`
	Credential protocol.URLEncodedBase64 `json:"credentialId"`
	Name       string                    `json:"name,omitempty"`
	DeviceName string                    `json:"deviceName,omitempty"`
	Trusted    bool                      `json:"trusted"`
	CreatedAt  string                    `json:"created"`
	LastUsedAt string                    `json:"lastUsedAt,omitempty"`
}
