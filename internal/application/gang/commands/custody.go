package commands

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andrescamacho/gangsim/internal/application/common"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/shared"
)

// DepositCurrencyCommand moves Amount from the Player's wallet into the ledger for Gang
type DepositCurrencyCommand struct {
	Town     shared.Address
	Player   shared.Address
	Gang     shared.EntityRef
	Currency shared.Address
	Amount   decimal.Decimal
}

func (c *DepositCurrencyCommand) OperationType() string    { return "deposit" }
func (c *DepositCurrencyCommand) OperationSubject() string { return c.Gang.String() }

// WithdrawCurrencyCommand pays Amount of the Gang's ledger balance out to the Player
type WithdrawCurrencyCommand struct {
	Town     shared.Address
	Player   shared.Address
	Gang     shared.EntityRef
	Currency shared.Address
	Amount   decimal.Decimal
}

func (c *WithdrawCurrencyCommand) OperationType() string    { return "withdraw" }
func (c *WithdrawCurrencyCommand) OperationSubject() string { return c.Gang.String() }

// CustodyResponse reports the gang's balance after a deposit or withdrawal
type CustodyResponse struct {
	Gang     shared.EntityRef
	Currency shared.Address
	Balance  decimal.Decimal
}

// CustodyHandler handles the DepositCurrency and WithdrawCurrency commands
type CustodyHandler struct {
	world    common.Directory
	balances common.Balances
}

// NewCustodyHandler creates a new CustodyHandler
func NewCustodyHandler(world common.Directory, balances common.Balances) *CustodyHandler {
	return &CustodyHandler{world: world, balances: balances}
}

// Handle executes DepositCurrency or WithdrawCurrency
func (h *CustodyHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	switch cmd := request.(type) {
	case *DepositCurrencyCommand:
		if err := validAmount(cmd.Amount); err != nil {
			return nil, err
		}
		t, err := h.world.Town(cmd.Town)
		if err != nil {
			return nil, err
		}
		if err := t.DepositCurrency(ctx, cmd.Player, cmd.Gang, cmd.Currency, cmd.Amount); err != nil {
			return nil, fmt.Errorf("failed to deposit %s %s for %s: %w", cmd.Amount, cmd.Currency, cmd.Gang, err)
		}
		return h.respond(ctx, cmd.Gang, cmd.Currency)

	case *WithdrawCurrencyCommand:
		if err := validAmount(cmd.Amount); err != nil {
			return nil, err
		}
		t, err := h.world.Town(cmd.Town)
		if err != nil {
			return nil, err
		}
		if err := t.WithdrawCurrency(ctx, cmd.Player, cmd.Gang, cmd.Currency, cmd.Amount); err != nil {
			return nil, fmt.Errorf("failed to withdraw %s %s for %s: %w", cmd.Amount, cmd.Currency, cmd.Gang, err)
		}
		return h.respond(ctx, cmd.Gang, cmd.Currency)

	default:
		return nil, fmt.Errorf("invalid request type: expected *DepositCurrencyCommand or *WithdrawCurrencyCommand")
	}
}

func (h *CustodyHandler) respond(ctx context.Context, gang shared.EntityRef, currency shared.Address) (mediator.Response, error) {
	balance, err := h.balances.RedeemableAmount(ctx, gang, currency)
	if err != nil {
		return nil, err
	}
	common.ReportPoolAfterCommit(ctx, h.balances, currency)
	return &CustodyResponse{Gang: gang, Currency: currency, Balance: balance}, nil
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewInvalidTransitionError("amount must be positive, got %s", amount)
	}
	return nil
}
