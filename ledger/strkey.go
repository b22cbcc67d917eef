package ledger

import (
	"crypto/ed25519"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
)

// Version bytes of the Stellar strkey encoding.
const (
	versionAccountID byte = 6 << 3  // 'G'
	versionSeed      byte = 18 << 3 // 'S'
)

// KeyLength is the length of an encoded account id or secret seed.
const KeyLength = 56

var (
	ErrInvalidKey      = errors.New("ledger: invalid key")
	ErrInvalidChecksum = errors.New("ledger: invalid key checksum")
)

var strkeyEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// encodeKey encodes a 32-byte payload: version byte, payload, then a
// little-endian CRC16-XModem checksum, in unpadded base32.
func encodeKey(version byte, payload []byte) string {
	raw := make([]byte, 0, 1+len(payload)+2)
	raw = append(raw, version)
	raw = append(raw, payload...)
	raw = binary.LittleEndian.AppendUint16(raw, crc16(raw))
	return strkeyEncoding.EncodeToString(raw)
}

func decodeKey(version byte, s string) ([]byte, error) {
	if len(s) != KeyLength {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidKey, len(s), KeyLength)
	}
	raw, err := strkeyEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if raw[0] != version {
		return nil, fmt.Errorf("%w: unexpected version byte", ErrInvalidKey)
	}
	body, sum := raw[:len(raw)-2], binary.LittleEndian.Uint16(raw[len(raw)-2:])
	if crc16(body) != sum {
		return nil, ErrInvalidChecksum
	}
	return body[1:], nil
}

// crc16 computes CRC16-XModem.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// EncodeAccountID returns the G... account id of an ed25519 public key.
func EncodeAccountID(pub ed25519.PublicKey) string {
	return encodeKey(versionAccountID, pub)
}

// EncodeSeed returns the S... secret seed of an ed25519 private key.
func EncodeSeed(priv ed25519.PrivateKey) string {
	return encodeKey(versionSeed, priv.Seed())
}

// ValidPublicKey reports whether s is a well-formed account id.
func ValidPublicKey(s string) bool {
	_, err := decodeKey(versionAccountID, s)
	return err == nil
}

// ValidSecretKey reports whether s is a well-formed secret seed.
func ValidSecretKey(s string) bool {
	_, err := decodeKey(versionSeed, s)
	return err == nil
}

// AccountIDFromSeed derives the account id for a secret seed.
func AccountIDFromSeed(seed string) (string, error) {
	raw, err := decodeKey(versionSeed, seed)
	if err != nil {
		return "", err
	}
	priv := ed25519.NewKeyFromSeed(raw)
	return EncodeAccountID(priv.Public().(ed25519.PublicKey)), nil
}
