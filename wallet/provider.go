// Package wallet holds the wallet session: connection, network enforcement and
// the provider events that keep it in sync.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bountyboard/bounty-backend/contract"
)

// Provider error codes, as reported by injected wallets.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
	CodeInvalidParams     = -32602
)

type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// HasCode reports whether err carries a ProviderError with the given code.
func HasCode(err error, code int) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ChainParams describes a network the way wallets expect it when adding a chain.
type ChainParams struct {
	ChainID           uint64         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

type EventKind int

const (
	AccountsChanged EventKind = iota
	ChainChanged
)

type ProviderEvent struct {
	Kind     EventKind
	Accounts []string
	ChainID  uint64
}

// Signer sends encoded contract calls from a single account.
type Signer interface {
	Address() common.Address
	SendTransaction(ctx context.Context, call *contract.Call) (common.Hash, error)
}

type Provider interface {
	RequestAccounts(ctx context.Context) ([]string, error)
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, params ChainParams) error
	Signer(account string) (Signer, error)
	// Subscribe delivers provider events to ch until the returned func is called.
	Subscribe(ch chan<- ProviderEvent) func()
}
