package cose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"math/big"
)

// ErrVerification means the signature did not verify against the key.
var ErrVerification = errors.New("cose: signature verification failed")

// VerifyAssertion checks an authenticator assertion signature. The
// signed payload is authenticatorData || SHA-256(clientDataJSON), and
// the algorithm is chosen by the stored key's type: ECDSA P-256 with a
// raw r||s signature, or RSA PKCS#1 v1.5, both over SHA-256.
func VerifyAssertion(keyBytes, authData, clientDataJSON, sig []byte) error {
	key, err := ParseKey(keyBytes)
	if err != nil {
		return err
	}

	clientHash := sha256.Sum256(clientDataJSON)
	payload := make([]byte, 0, len(authData)+len(clientHash))
	payload = append(payload, authData...)
	payload = append(payload, clientHash[:]...)
	digest := sha256.Sum256(payload)

	switch key.Kty {
	case KtyEC2:
		if len(sig) != 64 {
			return ErrVerification
		}
		r := new(big.Int).SetBytes(sig[:32])
		s := new(big.Int).SetBytes(sig[32:])
		if !ecdsa.Verify(key.EC, digest[:], r, s) {
			return ErrVerification
		}
		return nil

	case KtyRSA:
		if err := rsa.VerifyPKCS1v15(key.RSA, crypto.SHA256, digest[:], sig); err != nil {
			return ErrVerification
		}
		return nil

	default:
		return ErrUnsupportedKey
	}
}
