package ledger

import (
	"fmt"

	"github.com/tolelom/snakegame/core"
)

// Native moves the native currency between accounts.
type Native struct {
	state core.State
}

// NewNative returns the native-currency ledger over state.
func NewNative(state core.State) *Native {
	return &Native{state: state}
}

// Balance returns the native balance of address.
func (n *Native) Balance(address string) (uint64, error) {
	acc, err := n.state.GetAccount(address)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Transfer moves amount from one account to another. It fails with
// ErrInsufficientBalance when the sender is short and ErrTransferRejected
// when the recipient does not accept payments.
func (n *Native) Transfer(from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	sender, err := n.state.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance < amount {
		return fmt.Errorf("have %d need %d: %w", sender.Balance, amount, core.ErrInsufficientBalance)
	}
	recipient, err := n.state.GetAccount(to)
	if err != nil {
		return err
	}
	if recipient.RejectsPayments {
		return fmt.Errorf("pay %s: %w", to, core.ErrTransferRejected)
	}
	if from == to {
		return nil
	}
	if recipient.Balance, err = core.SafeAdd(recipient.Balance, amount); err != nil {
		return err
	}
	sender.Balance -= amount
	if err := n.state.SetAccount(sender); err != nil {
		return err
	}
	return n.state.SetAccount(recipient)
}
