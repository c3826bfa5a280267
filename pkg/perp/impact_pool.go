package perp

// ImpactPoolService is the seam for redistributing accumulated price-impact
// tokens back into the pool over time. Distribute is a documented no-op in
// this MVP: there is no redistribution path yet, only the accounting that
// would need one (Position.PendingImpactTokens). A future implementation
// would drain some fraction of pending impact into PoolBalances on each
// call.
type ImpactPoolService interface {
	Distribute(now Timestamp)
}

// BasicImpactPoolService is the no-op implementation.
type BasicImpactPoolService struct{}

// Distribute does nothing; see ImpactPoolService.
func (BasicImpactPoolService) Distribute(now Timestamp) {}
