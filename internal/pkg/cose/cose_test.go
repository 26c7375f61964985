package cose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func marshalEC2Key(t *testing.T, pub *ecdsa.PublicKey) []byte {
	t.Helper()
	x := make([]byte, 32)
	y := make([]byte, 32)
	pub.X.FillBytes(x)
	pub.Y.FillBytes(y)
	data, err := cbor.Marshal(map[int]interface{}{
		1:  KtyEC2,
		3:  AlgES256,
		-1: 1,
		-2: x,
		-3: y,
	})
	if err != nil {
		t.Fatalf("marshal ec2 key: %v", err)
	}
	return data
}

func marshalRSAKey(t *testing.T, pub *rsa.PublicKey) []byte {
	t.Helper()
	data, err := cbor.Marshal(map[int]interface{}{
		1:  KtyRSA,
		3:  AlgRS256,
		-1: pub.N.Bytes(),
		-2: []byte{0x01, 0x00, 0x01},
	})
	if err != nil {
		t.Fatalf("marshal rsa key: %v", err)
	}
	return data
}

func buildAuthData(rpID string, flags byte, counter uint32) []byte {
	hash := sha256.Sum256([]byte(rpID))
	out := make([]byte, 0, 37)
	out = append(out, hash[:]...)
	out = append(out, flags)
	out = binary.BigEndian.AppendUint32(out, counter)
	return out
}

func signES256(t *testing.T, priv *ecdsa.PrivateKey, authData, clientDataJSON []byte) []byte {
	t.Helper()
	clientHash := sha256.Sum256(clientDataJSON)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientHash[:]...))
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		t.Fatalf("ecdsa sign: %v", err)
	}
	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig
}

func TestParseKeyEC2(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ParseKey(marshalEC2Key(t, &priv.PublicKey))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key.Kty != KtyEC2 || key.EC == nil || key.RSA != nil {
		t.Fatalf("unexpected key shape: %+v", key)
	}
	if key.EC.X.Cmp(priv.PublicKey.X) != 0 || key.EC.Y.Cmp(priv.PublicKey.Y) != 0 {
		t.Fatal("coordinates do not match")
	}
}

func TestParseKeyRSA(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	key, err := ParseKey(marshalRSAKey(t, &priv.PublicKey))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if key.Kty != KtyRSA || key.RSA == nil || key.EC != nil {
		t.Fatalf("unexpected key shape: %+v", key)
	}
	if key.RSA.E != 65537 {
		t.Fatalf("exponent = %d, want 65537", key.RSA.E)
	}
}

func TestParseKeyRejectsUnknownKty(t *testing.T) {
	data, _ := cbor.Marshal(map[int]interface{}{1: 4})
	if _, err := ParseKey(data); !errors.Is(err, ErrUnsupportedKey) {
		t.Fatalf("err = %v, want ErrUnsupportedKey", err)
	}
}

func TestParseKeyRejectsOffCurvePoint(t *testing.T) {
	x := make([]byte, 32)
	y := make([]byte, 32)
	x[31] = 1
	y[31] = 1
	data, _ := cbor.Marshal(map[int]interface{}{
		1: KtyEC2, 3: AlgES256, -1: 1, -2: x, -3: y,
	})
	if _, err := ParseKey(data); !errors.Is(err, ErrUnsupportedKey) {
		t.Fatalf("err = %v, want ErrUnsupportedKey", err)
	}
}

func TestParseAuthenticatorDataMinimal(t *testing.T) {
	raw := buildAuthData("example.com", FlagUserPresent, 42)
	ad, err := ParseAuthenticatorData(raw)
	if err != nil {
		t.Fatalf("ParseAuthenticatorData: %v", err)
	}
	if !ad.UserPresent() || ad.UserVerified() {
		t.Fatalf("flags wrong: %08b", ad.Flags)
	}
	if ad.Counter != 42 {
		t.Fatalf("counter = %d, want 42", ad.Counter)
	}
	if ad.CredentialID != nil || ad.PublicKey != nil {
		t.Fatal("attested credential fields set without AT flag")
	}
}

func TestParseAuthenticatorDataAttested(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	coseKey := marshalEC2Key(t, &priv.PublicKey)
	credID := []byte("cred-id-0001")

	raw := buildAuthData("example.com", FlagUserPresent|FlagAttestedCredential, 7)
	raw = append(raw, make([]byte, 16)...) // aaguid
	raw = binary.BigEndian.AppendUint16(raw, uint16(len(credID)))
	raw = append(raw, credID...)
	raw = append(raw, coseKey...)

	ad, err := ParseAuthenticatorData(raw)
	if err != nil {
		t.Fatalf("ParseAuthenticatorData: %v", err)
	}
	if string(ad.CredentialID) != string(credID) {
		t.Fatalf("credential id = %x", ad.CredentialID)
	}
	if _, err := ParseKey(ad.PublicKey); err != nil {
		t.Fatalf("extracted key does not parse: %v", err)
	}
}

func TestParseAuthenticatorDataTooShort(t *testing.T) {
	if _, err := ParseAuthenticatorData(make([]byte, 10)); !errors.Is(err, ErrAuthDataTooShort) {
		t.Fatalf("err = %v, want ErrAuthDataTooShort", err)
	}
}

func TestParseAttestationObject(t *testing.T) {
	authData := buildAuthData("example.com", FlagUserPresent, 0)
	raw, err := cbor.Marshal(map[string]interface{}{
		"fmt":      "none",
		"attStmt":  map[string]interface{}{},
		"authData": authData,
	})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := ParseAttestationObject(raw)
	if err != nil {
		t.Fatalf("ParseAttestationObject: %v", err)
	}
	if obj.Fmt != "none" {
		t.Fatalf("fmt = %q", obj.Fmt)
	}
	if string(obj.AuthData) != string(authData) {
		t.Fatal("authData mismatch")
	}
}

func TestVerifyAssertionES256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	keyBytes := marshalEC2Key(t, &priv.PublicKey)
	authData := buildAuthData("example.com", FlagUserPresent, 9)
	clientData := []byte(`{"type":"webauthn.get","challenge":"abc","origin":"https://example.com"}`)
	sig := signES256(t, priv, authData, clientData)

	if err := VerifyAssertion(keyBytes, authData, clientData, sig); err != nil {
		t.Fatalf("VerifyAssertion: %v", err)
	}
}

func TestVerifyAssertionRS256(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	keyBytes := marshalRSAKey(t, &priv.PublicKey)
	authData := buildAuthData("example.com", FlagUserPresent, 3)
	clientData := []byte(`{"type":"webauthn.get","challenge":"abc","origin":"https://example.com"}`)

	clientHash := sha256.Sum256(clientData)
	digest := sha256.Sum256(append(append([]byte{}, authData...), clientHash[:]...))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest[:])
	if err != nil {
		t.Fatal(err)
	}

	if err := VerifyAssertion(keyBytes, authData, clientData, sig); err != nil {
		t.Fatalf("VerifyAssertion: %v", err)
	}
}

func TestVerifyAssertionRejectsTampering(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	keyBytes := marshalEC2Key(t, &priv.PublicKey)
	authData := buildAuthData("example.com", FlagUserPresent, 9)
	clientData := []byte(`{"type":"webauthn.get","challenge":"abc","origin":"https://example.com"}`)
	sig := signES256(t, priv, authData, clientData)

	t.Run("client data", func(t *testing.T) {
		bad := append([]byte{}, clientData...)
		bad[10] ^= 0x01
		if err := VerifyAssertion(keyBytes, authData, bad, sig); !errors.Is(err, ErrVerification) {
			t.Fatalf("err = %v, want ErrVerification", err)
		}
	})
	t.Run("auth data", func(t *testing.T) {
		bad := append([]byte{}, authData...)
		bad[0] ^= 0x01
		if err := VerifyAssertion(keyBytes, bad, clientData, sig); !errors.Is(err, ErrVerification) {
			t.Fatalf("err = %v, want ErrVerification", err)
		}
	})
	t.Run("signature", func(t *testing.T) {
		bad := append([]byte{}, sig...)
		bad[5] ^= 0x01
		if err := VerifyAssertion(keyBytes, authData, clientData, bad); !errors.Is(err, ErrVerification) {
			t.Fatalf("err = %v, want ErrVerification", err)
		}
	})
	t.Run("wrong length signature", func(t *testing.T) {
		if err := VerifyAssertion(keyBytes, authData, clientData, sig[:63]); !errors.Is(err, ErrVerification) {
			t.Fatalf("err = %v, want ErrVerification", err)
		}
	})
	t.Run("wrong key", func(t *testing.T) {
		other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		otherBytes := marshalEC2Key(t, &other.PublicKey)
		if err := VerifyAssertion(otherBytes, authData, clientData, sig); !errors.Is(err, ErrVerification) {
			t.Fatalf("err = %v, want ErrVerification", err)
		}
	})
}
