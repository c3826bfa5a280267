package perp

import "math/big"

type claimKey struct {
	Account AccountId
	Asset   AssetId
}

// Claimables is a ledger of rights to receive tokens later: the engine
// never moves real tokens on funding payout or fee rebate, it only
// accumulates how much each account can claim per asset. Funding and fee
// claimables are kept in separate maps so a host can route them
// differently (e.g. fees claimable immediately, funding claimable after a
// cooldown) without this package caring.
type Claimables struct {
	funding map[claimKey]*TokenAmount
	fees    map[claimKey]*TokenAmount
}

// NewClaimables returns an empty claimables ledger.
func NewClaimables() *Claimables {
	return &Claimables{
		funding: make(map[claimKey]*TokenAmount),
		fees:    make(map[claimKey]*TokenAmount),
	}
}

func addInto(m map[claimKey]*TokenAmount, key claimKey, amount *TokenAmount) {
	if amount.Sign() == 0 {
		return
	}
	bal, ok := m[key]
	if !ok {
		bal = big.NewInt(0)
		m[key] = bal
	}
	bal.Add(bal, amount)
}

func getFrom(m map[claimKey]*TokenAmount, key claimKey) *TokenAmount {
	if bal, ok := m[key]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

func takeAllFrom(m map[claimKey]*TokenAmount, key claimKey) *TokenAmount {
	bal, ok := m[key]
	if !ok {
		return big.NewInt(0)
	}
	delete(m, key)
	return bal
}

// AddFunding credits a funding claimable for (account, asset). amount is
// expected non-negative; zero is a no-op.
func (c *Claimables) AddFunding(account AccountId, asset AssetId, amount *TokenAmount) {
	addInto(c.funding, claimKey{account, asset}, amount)
}

// GetFunding reads the current funding claimable without consuming it.
func (c *Claimables) GetFunding(account AccountId, asset AssetId) *TokenAmount {
	return getFrom(c.funding, claimKey{account, asset})
}

// TakeFundingAll consumes and returns the entire funding claimable.
func (c *Claimables) TakeFundingAll(account AccountId, asset AssetId) *TokenAmount {
	return takeAllFrom(c.funding, claimKey{account, asset})
}

// AddFee credits a generic fee claimable (rebates, referral, etc.).
func (c *Claimables) AddFee(account AccountId, asset AssetId, amount *TokenAmount) {
	addInto(c.fees, claimKey{account, asset}, amount)
}

// GetFee reads the current fee claimable without consuming it.
func (c *Claimables) GetFee(account AccountId, asset AssetId) *TokenAmount {
	return getFrom(c.fees, claimKey{account, asset})
}

// TakeFeeAll consumes and returns the entire fee claimable.
func (c *Claimables) TakeFeeAll(account AccountId, asset AssetId) *TokenAmount {
	return takeAllFrom(c.fees, claimKey{account, asset})
}

// BalanceOf returns the account's total withdrawable balance for asset:
// funding plus fees.
func (c *Claimables) BalanceOf(account AccountId, asset AssetId) *TokenAmount {
	return new(big.Int).Add(c.GetFunding(account, asset), c.GetFee(account, asset))
}

// ClaimAll consumes every claimable (funding and fees) for (account, asset)
// and returns the total. It errors rather than returning zero so a host
// doesn't mistake "nothing to claim" for a successful zero-value claim.
func (c *Claimables) ClaimAll(account AccountId, asset AssetId) (*TokenAmount, error) {
	key := claimKey{account, asset}
	total := new(big.Int).Add(takeAllFrom(c.funding, key), takeAllFrom(c.fees, key))
	if total.Sign() == 0 {
		return nil, ErrNothingToClaim
	}
	return total, nil
}

// AssetBalance pairs an asset with a claimable amount, as returned by
// ListByAccount.
type AssetBalance struct {
	Asset  AssetId
	Amount *TokenAmount
}

// ListByAccount returns every non-zero (asset, total claimable) pair for an
// account, combining funding and fee claimables.
func (c *Claimables) ListByAccount(account AccountId) []AssetBalance {
	totals := make(map[AssetId]*TokenAmount)
	accumulate := func(m map[claimKey]*TokenAmount) {
		for k, v := range m {
			if k.Account != account || v.Sign() == 0 {
				continue
			}
			bal, ok := totals[k.Asset]
			if !ok {
				bal = big.NewInt(0)
				totals[k.Asset] = bal
			}
			bal.Add(bal, v)
		}
	}
	accumulate(c.funding)
	accumulate(c.fees)

	out := make([]AssetBalance, 0, len(totals))
	for asset, amount := range totals {
		out = append(out, AssetBalance{Asset: asset, Amount: amount})
	}
	return out
}
