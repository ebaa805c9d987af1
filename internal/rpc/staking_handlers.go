package rpc

import (
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// ── Token endpoints ─────────────────────────────────────────────────────

func (s *Server) handleTokenGetInfo(_ *Request) (interface{}, *Error) {
	info, err := s.chain.TokenInfo()
	if err != nil {
		return nil, stateError(err)
	}
	return info, nil
}

func (s *Server) handleTokenGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}

	bal, err := s.chain.Balance(addr)
	if err != nil {
		return nil, stateError(err)
	}
	staked, err := s.chain.StakedBalance(addr)
	if err != nil {
		return nil, stateError(err)
	}
	entries, err := s.chain.LockedEntries(addr)
	if err != nil {
		return nil, stateError(err)
	}
	avail, err := s.chain.AvailableBalance(addr)
	if err != nil {
		return nil, stateError(err)
	}

	var locked types.Amount
	for _, e := range entries {
		locked = locked.SaturatingAdd(e.Amount)
	}
	return &BalanceResult{
		Address:   addr.String(),
		Balance:   bal,
		Staked:    staked,
		Locked:    locked,
		Available: avail,
	}, nil
}

func (s *Server) handleTokenGetAllowance(req *Request) (interface{}, *Error) {
	var params AllowanceParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	spender, rpcErr := parseAddress("spender", params.Spender)
	if rpcErr != nil {
		return nil, rpcErr
	}

	a, err := s.chain.Allowance(owner, spender)
	if err != nil {
		return nil, stateError(err)
	}
	return &AllowanceResult{
		Owner:     owner.String(),
		Spender:   spender.String(),
		Allowance: a.Amount,
		Expires:   a.Expires,
		Expired:   a.Expired(s.chain.Height()),
	}, nil
}

func (s *Server) handleTokenGetAllAllowances(req *Request) (interface{}, *Error) {
	var params PageParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	owner, rpcErr := parseAddress("owner", params.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	startAfter, rpcErr := parseStartAfter(params.StartAfter)
	if rpcErr != nil {
		return nil, rpcErr
	}

	list, err := s.chain.Allowances(owner, startAfter, params.Limit)
	if err != nil {
		return nil, stateError(err)
	}
	return &AllowancesResult{Owner: owner.String(), Allowances: list}, nil
}

func (s *Server) handleTokenGetAllAccounts(req *Request) (interface{}, *Error) {
	var params PageParam
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	startAfter, rpcErr := parseStartAfter(params.StartAfter)
	if rpcErr != nil {
		return nil, rpcErr
	}

	list, err := s.chain.Accounts(startAfter, params.Limit)
	if err != nil {
		return nil, stateError(err)
	}
	return &AccountsResult{Accounts: list}, nil
}

func parseStartAfter(s string) (*types.Address, *Error) {
	if s == "" {
		return nil, nil
	}
	addr, err := parseAddress("start_after", s)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ── Staking endpoints ───────────────────────────────────────────────────

func (s *Server) handleStakingGetConfig(_ *Request) (interface{}, *Error) {
	cfg, err := s.chain.StakingParams()
	if err != nil {
		return nil, stateError(err)
	}
	return cfg, nil
}

func (s *Server) handleStakingGetAccumulator(_ *Request) (interface{}, *Error) {
	acc, err := s.chain.Accumulator()
	if err != nil {
		return nil, stateError(err)
	}
	return &AccumulatorResult{
		RewardPerUnit:    acc.RewardPerUnit.Dec(),
		RewardScale:      staking.RewardScale.Dec(),
		Remainder:        acc.Remainder.Dec(),
		LastUpdateHeight: acc.LastUpdateHeight,
		TotalStaked:      acc.TotalStaked,
	}, nil
}

// addressQuery parses an AddressParam and runs fn on the address.
func (s *Server) addressQuery(req *Request, fn func(types.Address) (types.Amount, error)) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amt, err := fn(addr)
	if err != nil {
		return nil, stateError(err)
	}
	return &AmountResult{Address: addr.String(), Amount: amt}, nil
}

func (s *Server) handleStakingGetStaked(req *Request) (interface{}, *Error) {
	return s.addressQuery(req, s.chain.StakedBalance)
}

func (s *Server) handleStakingGetReward(req *Request) (interface{}, *Error) {
	return s.addressQuery(req, s.chain.Reward)
}

func (s *Server) handleStakingGetAvailable(req *Request) (interface{}, *Error) {
	return s.addressQuery(req, s.chain.AvailableBalance)
}

func (s *Server) handleStakingGetLocked(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	addr, rpcErr := parseAddress("address", params.Address)
	if rpcErr != nil {
		return nil, rpcErr
	}
	entries, err := s.chain.LockedEntries(addr)
	if err != nil {
		return nil, stateError(err)
	}

	height := s.chain.Height()
	res := &LockedResult{Address: addr.String(), Entries: entries}
	if res.Entries == nil {
		res.Entries = []staking.LockEntry{}
	}
	for _, e := range entries {
		res.Total = res.Total.SaturatingAdd(e.Amount)
		if e.MaturityHeight <= height {
			res.Unlocked = res.Unlocked.SaturatingAdd(e.Amount)
		}
	}
	return res, nil
}
