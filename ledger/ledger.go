// Package ledger is the Stellar ledger capability used by the account
// steps. Implementations are injected: Simulated generates real keypairs
// without touching a network, and MCP delegates to the tools of a Stellar
// MCP server.
package ledger

import (
	"context"
	"fmt"
)

// Network names a Stellar network.
type Network string

const (
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
)

// Passphrase returns the network passphrase used when signing.
func (n Network) Passphrase() string {
	switch n {
	case Mainnet:
		return "Public Global Stellar Network ; September 2015"
	default:
		return "Test SDF Network ; September 2015"
	}
}

// ParseNetwork validates a network name. The empty string selects testnet.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case "", Testnet:
		return Testnet, nil
	case Mainnet:
		return Mainnet, nil
	default:
		return "", fmt.Errorf("ledger: unknown network %q (must be testnet or mainnet)", s)
	}
}

// Keypair is a newly created account.
type Keypair struct {
	PublicKey string
	SecretKey string
	Network   Network
}

// AccountInfo describes an account on the ledger.
type AccountInfo struct {
	AccountID string
	// Balance is the native balance as a decimal string with seven digits
	// of precision, e.g. "0.0000000".
	Balance string
	Exists  bool
}

// Ledger creates and inspects accounts. Implementations must be safe for
// concurrent use and must not keep secret keys after returning them.
type Ledger interface {
	CreateAccount(ctx context.Context, network Network) (*Keypair, error)
	AccountInfo(ctx context.Context, publicKey string) (*AccountInfo, error)
}
