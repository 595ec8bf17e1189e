package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VirtualCoins is the legacy coin wallet.  Its API predates
// Processor and is used only through VirtualCoinsAdapter.
type VirtualCoins struct{}

// SendVirtualCoins transfers amount and reports success.
func (VirtualCoins) SendVirtualCoins(amount float64, currency, hash string) bool {
	return amount > 0 && currency != "" && hash != ""
}

// VerifyTransaction always confirms; the wallet keeps no ledger.
func (VirtualCoins) VerifyTransaction(hash string) bool { return true }

// VirtualCoinsAdapter exposes a VirtualCoins wallet as a Processor.
type VirtualCoinsAdapter struct {
	coins    *VirtualCoins
	currency string
}

func NewVirtualCoinsAdapter(c *VirtualCoins) *VirtualCoinsAdapter {
	if c == nil {
		panic("nil wallet passed to NewVirtualCoinsAdapter")
	}
	return &VirtualCoinsAdapter{coins: c, currency: "USD"}
}

func (a *VirtualCoinsAdapter) ProcessPayment(amount float64) bool {
	return a.coins.SendVirtualCoins(amount, a.currency, transactionHash())
}

func (a *VirtualCoinsAdapter) RefundPayment(string) bool { return true }

func (a *VirtualCoinsAdapter) ValidatePayment(amount float64) bool { return amount > 0 }

func transactionHash() string {
	return fmt.Sprintf("tx_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}
