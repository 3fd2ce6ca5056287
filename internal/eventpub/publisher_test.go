package eventpub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent   []published
	failOn int64
	closed bool
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	var op domain.Operation
	if err := json.Unmarshal(msg.Body, &op); err != nil {
		return err
	}

	if op.ID == f.failOn {
		return errors.New("channel closed")
	}

	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})

	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRoutingKey(t *testing.T) {
	require.Equal(t, "operation.credit", RoutingKey(domain.Credit))
	require.Equal(t, "operation.debit", RoutingKey(domain.Debit))
}

func TestNotify(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "ledger.operations")

	debit := domain.Operation{
		ID:        1,
		AccountID: "A",
		Type:      domain.Debit,
		Amount:    decimal.NewFromInt(30),
		CreatedAt: time.Now().UTC(),
	}
	credit := domain.Operation{
		ID:        2,
		AccountID: "B",
		Type:      domain.Credit,
		Amount:    decimal.NewFromInt(30),
		CreatedAt: time.Now().UTC(),
	}

	err := p.Notify(context.Background(), debit, credit)
	require.NoError(t, err)
	require.Len(t, ch.sent, 2)

	require.Equal(t, "ledger.operations", ch.sent[0].exchange)
	require.Equal(t, "operation.debit", ch.sent[0].key)
	require.Equal(t, "operation.credit", ch.sent[1].key)
	require.Equal(t, uint8(amqp.Persistent), ch.sent[0].msg.DeliveryMode)
	require.Equal(t, "application/json", ch.sent[0].msg.ContentType)

	var got domain.Operation
	require.NoError(t, json.Unmarshal(ch.sent[1].msg.Body, &got))
	require.Equal(t, credit.AccountID, got.AccountID)
	require.True(t, credit.Amount.Equal(got.Amount))
}

func TestNotifyContinuesAfterFailure(t *testing.T) {
	ch := &fakeChannel{failOn: 1}
	p := newPublisher(ch, "x")

	err := p.Notify(context.Background(),
		domain.Operation{ID: 1, Type: domain.Debit, Amount: decimal.NewFromInt(1)},
		domain.Operation{ID: 2, Type: domain.Credit, Amount: decimal.NewFromInt(1)},
	)
	require.Error(t, err)
	require.Len(t, ch.sent, 1)
	require.Equal(t, "operation.credit", ch.sent[0].key)
}

func TestNotifyCanceled(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Notify(ctx, domain.Operation{ID: 1, Type: domain.Debit, Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, ch.sent)
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	require.NoError(t, newPublisher(ch, "x").Close())
	require.True(t, ch.closed)
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.Notify(context.Background(), domain.Operation{ID: 1}))
}
