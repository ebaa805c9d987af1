package chain

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-staking/internal/ledger"
	"github.com/Klingon-tech/klingnet-staking/internal/staking"
	"github.com/Klingon-tech/klingnet-staking/internal/storage"
	"github.com/Klingon-tech/klingnet-staking/pkg/msg"
	"github.com/Klingon-tech/klingnet-staking/pkg/types"
)

// Key prefixes of the state partitions.
var (
	prefixChain   = []byte("c/")
	prefixLedger  = []byte("l/")
	prefixStaking = []byte("s/")
)

// Dispatcher routes a message to the ledger or the staking keeper. Token
// messages that reduce a balance pass the available-balance guard first.
type Dispatcher struct {
	ledger *ledger.Ledger
	keeper *staking.Keeper
}

// NewDispatcher builds a dispatcher whose ledger and keeper both write to db.
func NewDispatcher(db storage.DB) *Dispatcher {
	led := ledger.New(storage.NewPrefixDB(db, prefixLedger))
	return &Dispatcher{
		ledger: led,
		keeper: staking.NewKeeper(storage.NewPrefixDB(db, prefixStaking), led),
	}
}

// TransferResult is the effect of a transfer, send or *_from move.
type TransferResult struct {
	From   types.Address `json:"from"`
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
	// Payload is echoed for send messages; no receiver code runs.
	Payload []byte `json:"payload,omitempty"`
}

// BurnResult is the effect of a burn or burn_from.
type BurnResult struct {
	From   types.Address `json:"from"`
	Amount types.Amount  `json:"amount"`
}

// AllowanceResult is the allowance after an increase or decrease.
type AllowanceResult struct {
	Owner     types.Address    `json:"owner"`
	Spender   types.Address    `json:"spender"`
	Allowance ledger.Allowance `json:"allowance"`
}

func deliveryResult(dl *ledger.Delivery) *TransferResult {
	return &TransferResult{From: dl.From, To: dl.To, Amount: dl.Amount, Payload: dl.Payload}
}

// Dispatch executes m for sender at height now and returns its effect.
func (d *Dispatcher) Dispatch(m *msg.Message, sender types.Address, now uint64) (any, error) {
	if debtor, ok := m.Debtor(); ok {
		if m.Amount.IsZero() {
			return nil, ledger.ErrInvalidAmount
		}
		if err := d.keeper.CheckAvailable(debtor, m.Amount); err != nil {
			return nil, err
		}
	}

	switch m.Type {
	case msg.TypeTransfer:
		if err := d.ledger.Transfer(sender, m.Recipient, m.Amount); err != nil {
			return nil, err
		}
		return &TransferResult{From: sender, To: m.Recipient, Amount: m.Amount}, nil

	case msg.TypeSend:
		dl, err := d.ledger.Send(sender, m.Recipient, m.Amount, m.Payload)
		if err != nil {
			return nil, err
		}
		return deliveryResult(dl), nil

	case msg.TypeBurn:
		if err := d.ledger.Burn(sender, m.Amount); err != nil {
			return nil, err
		}
		return &BurnResult{From: sender, Amount: m.Amount}, nil

	case msg.TypeTransferFrom:
		if err := d.ledger.TransferFrom(sender, m.Owner, m.Recipient, m.Amount, now); err != nil {
			return nil, err
		}
		return &TransferResult{From: m.Owner, To: m.Recipient, Amount: m.Amount}, nil

	case msg.TypeSendFrom:
		dl, err := d.ledger.SendFrom(sender, m.Owner, m.Recipient, m.Amount, m.Payload, now)
		if err != nil {
			return nil, err
		}
		return deliveryResult(dl), nil

	case msg.TypeBurnFrom:
		if err := d.ledger.BurnFrom(sender, m.Owner, m.Amount, now); err != nil {
			return nil, err
		}
		return &BurnResult{From: m.Owner, Amount: m.Amount}, nil

	case msg.TypeIncreaseAllowance:
		a, err := d.ledger.IncreaseAllowance(sender, m.Spender, m.Amount, m.Expires, now)
		if err != nil {
			return nil, err
		}
		return &AllowanceResult{Owner: sender, Spender: m.Spender, Allowance: a}, nil

	case msg.TypeDecreaseAllowance:
		a, err := d.ledger.DecreaseAllowance(sender, m.Spender, m.Amount, m.Expires, now)
		if err != nil {
			return nil, err
		}
		return &AllowanceResult{Owner: sender, Spender: m.Spender, Allowance: a}, nil

	case msg.TypeStake:
		return d.keeper.Stake(sender, m.Amount, now)

	case msg.TypeUnstake:
		return d.keeper.Unstake(sender, m.Amount, now)

	case msg.TypeClaimRewards:
		return d.keeper.ClaimRewards(sender, m.Amount, now)

	case msg.TypeUnlock:
		return d.keeper.Unlock(sender, now)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, m.Type)
}
