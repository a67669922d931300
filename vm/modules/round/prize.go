package round

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/tolelom/snakegame/core"
	"github.com/tolelom/snakegame/vm"
)

// Beneficiaries names the holders of each prize role at finish time. An
// empty address means the role has no holder.
type Beneficiaries struct {
	RoundBest string
	BestEver  string
	Developer string
}

// Split computes the shares of pot. Each share is pot*n/10 rounded down; the
// remainder is not assigned and stays in the pot.
func Split(pot uint64, params core.Params, b Beneficiaries) []core.Payout {
	share := func(n uint64) uint64 {
		// pot/10*n + (pot%10)*n/10 avoids overflowing pot*n.
		return pot/core.ShareDenominator*n + (pot%core.ShareDenominator)*n/core.ShareDenominator
	}
	return []core.Payout{
		{Role: core.RoleRoundBest, Beneficiary: b.RoundBest, Amount: share(params.RoundBestShare)},
		{Role: core.RoleBestEver, Beneficiary: b.BestEver, Amount: share(params.BestEverShare)},
		{Role: core.RoleDeveloper, Beneficiary: b.Developer, Amount: share(params.DeveloperShare)},
	}
}

// Distribute pays each share from the engine account. Shares without a
// beneficiary are skipped. A failed transfer is reverted on its own and
// recorded on the payout; the other shares still go out. The returned error
// combines every transfer failure.
func Distribute(ctx *vm.Context, payouts []core.Payout) ([]core.Payout, error) {
	var errs error
	for i := range payouts {
		p := &payouts[i]
		if p.Beneficiary == "" || p.Amount == 0 {
			continue
		}
		snap, err := ctx.State.Snapshot()
		if err != nil {
			return nil, err
		}
		if err := ctx.Native.Transfer(core.EngineAddress, p.Beneficiary, p.Amount); err != nil {
			if rerr := ctx.State.RevertToSnapshot(snap); rerr != nil {
				return nil, fmt.Errorf("revert %s payout: %w", p.Role, rerr)
			}
			p.Error = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("%s payout to %s: %w", p.Role, p.Beneficiary, err))
			continue
		}
		p.Paid = true
	}
	return payouts, errs
}
