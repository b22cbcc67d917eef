package ledger

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
)

// Simulated is a Ledger that generates real ed25519 keypairs locally and
// reports every well-formed account as existing with a zero balance. It
// does not fund or submit anything.
type Simulated struct {
	random io.Reader
}

// NewSimulated creates a simulated ledger using crypto/rand.
func NewSimulated() *Simulated {
	return &Simulated{random: rand.Reader}
}

// NewSimulatedWithRand creates a simulated ledger reading key material from
// r, for reproducible keys in tests.
func NewSimulatedWithRand(r io.Reader) *Simulated {
	return &Simulated{random: r}
}

// CreateAccount generates a keypair for network.
func (s *Simulated) CreateAccount(ctx context.Context, network Network) (*Keypair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pub, priv, err := ed25519.GenerateKey(s.random)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{
		PublicKey: EncodeAccountID(pub),
		SecretKey: EncodeSeed(priv),
		Network:   network,
	}, nil
}

// AccountInfo validates the account id and reports a zero balance.
func (s *Simulated) AccountInfo(ctx context.Context, publicKey string) (*AccountInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := decodeKey(versionAccountID, publicKey); err != nil {
		return nil, err
	}
	return &AccountInfo{AccountID: publicKey, Balance: "0.0000000", Exists: true}, nil
}
