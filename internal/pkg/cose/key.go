package cose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// COSE key types and algorithms used by WebAuthn authenticators.
const (
	KtyEC2 = 2
	KtyRSA = 3

	AlgES256 = -7
	AlgRS256 = -257
)

var ErrUnsupportedKey = errors.New("cose: unsupported key")

// Key is a parsed COSE public key. Exactly one of EC and RSA is set,
// matching Kty.
type Key struct {
	Kty int
	Alg int
	EC  *ecdsa.PublicKey
	RSA *rsa.PublicKey
}

// The EC2 and RSA parameter maps reuse the same negative labels with
// different meanings (-1 is crv for EC2 but n for RSA), so decoding is
// in two phases: read kty first, then decode the full map into the
// matching shape.
type keyHeader struct {
	Kty int `cbor:"1,keyasint"`
	Alg int `cbor:"3,keyasint"`
}

type ec2Key struct {
	Crv int    `cbor:"-1,keyasint"`
	X   []byte `cbor:"-2,keyasint"`
	Y   []byte `cbor:"-3,keyasint"`
}

type rsaKey struct {
	N []byte `cbor:"-1,keyasint"`
	E []byte `cbor:"-2,keyasint"`
}

// ParseKey decodes a CBOR-encoded COSE public key. Only EC2 over P-256
// and RSA are accepted.
func ParseKey(data []byte) (*Key, error) {
	var hdr keyHeader
	if err := cbor.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("cose: decode key header: %w", err)
	}

	switch hdr.Kty {
	case KtyEC2:
		var ec ec2Key
		if err := cbor.Unmarshal(data, &ec); err != nil {
			return nil, fmt.Errorf("cose: decode ec2 key: %w", err)
		}
		// crv 1 is P-256, the only curve we accept for ES256.
		if ec.Crv != 1 {
			return nil, fmt.Errorf("%w: ec2 curve %d", ErrUnsupportedKey, ec.Crv)
		}
		x := new(big.Int).SetBytes(ec.X)
		y := new(big.Int).SetBytes(ec.Y)
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		if !pub.Curve.IsOnCurve(x, y) {
			return nil, fmt.Errorf("%w: point not on curve", ErrUnsupportedKey)
		}
		return &Key{Kty: KtyEC2, Alg: hdr.Alg, EC: pub}, nil

	case KtyRSA:
		var rk rsaKey
		if err := cbor.Unmarshal(data, &rk); err != nil {
			return nil, fmt.Errorf("cose: decode rsa key: %w", err)
		}
		n := new(big.Int).SetBytes(rk.N)
		e := new(big.Int).SetBytes(rk.E)
		if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 1 {
			return nil, fmt.Errorf("%w: bad rsa parameters", ErrUnsupportedKey)
		}
		return &Key{Kty: KtyRSA, Alg: hdr.Alg, RSA: &rsa.PublicKey{N: n, E: int(e.Int64())}}, nil

	default:
		return nil, fmt.Errorf("%w: kty %d", ErrUnsupportedKey, hdr.Kty)
	}
}
