package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/gangsim/internal/application/ledger/commands"
	"github.com/andrescamacho/gangsim/internal/application/mediator"
	"github.com/andrescamacho/gangsim/internal/domain/gang"
	"github.com/andrescamacho/gangsim/internal/domain/ledger"
	"github.com/andrescamacho/gangsim/pkg/utils"
	"github.com/andrescamacho/gangsim/test/helpers"
)

func newDeposit(t *testing.T) *ledger.Transaction {
	t.Helper()
	tx, err := ledger.NewTransaction(ledger.TransactionParams{
		Owner:        gang.Ref(0),
		Currency:     "bandits",
		Timestamp:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Type:         ledger.TransactionTypeDeposit,
		Amount:       utils.Units(100),
		SharesDelta:  utils.Units(100),
		BalanceAfter: utils.Units(100),
	})
	require.NoError(t, err)
	return tx
}

func TestJournalObserver_SendsRecordTransaction(t *testing.T) {
	// Arrange
	m := helpers.NewMockMediator()
	m.SetSendFunc(func(_ context.Context, _ mediator.Request) (mediator.Response, error) {
		return &commands.RecordTransactionResponse{}, nil
	})
	observer := commands.NewJournalObserver(m)
	tx := newDeposit(t)

	// Act
	observer.TransactionCommitted(context.Background(), tx)

	// Assert
	requests := m.Requests()
	require.Len(t, requests, 1)
	cmd, ok := requests[0].(*commands.RecordTransactionCommand)
	require.True(t, ok)
	assert.Same(t, tx, cmd.Transaction)
	assert.Equal(t, []string{"RecordTransactionCommand"}, m.GetCallLog())
}

func TestJournalObserver_SwallowsJournalFailures(t *testing.T) {
	m := helpers.NewMockMediator()
	m.SetSendFunc(func(_ context.Context, _ mediator.Request) (mediator.Response, error) {
		return nil, errors.New("database unavailable")
	})
	observer := commands.NewJournalObserver(m)

	assert.NotPanics(t, func() {
		observer.TransactionCommitted(context.Background(), newDeposit(t))
	})
	assert.Len(t, m.Requests(), 1)
}
