package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"budgetmate/internal/amqp"
	"budgetmate/internal/cache"
	"budgetmate/internal/core"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev *amqp.TransactionEvent) error
}

type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (core.User, error)
}

// AMQPPublisher turns ledger changes into transaction events. Usernames
// never change, so they are cached after the first lookup.
type AMQPPublisher struct {
	publisher EventPublisher
	users     UserLookup
	usernames *cache.LRUCache[string]
}

func NewAMQPPublisher(publisher EventPublisher, users UserLookup) *AMQPPublisher {
	return &AMQPPublisher{
		publisher: publisher,
		users:     users,
		usernames: cache.NewLRUCache[string](1024, 24*time.Hour),
	}
}

// TransactionCreated implements services.TransactionPublisher
func (a *AMQPPublisher) TransactionCreated(ctx context.Context, t core.Transaction) error {
	return a.publish(ctx, amqp.EventCreated, t)
}

// TransactionDeleted implements services.TransactionPublisher
func (a *AMQPPublisher) TransactionDeleted(ctx context.Context, t core.Transaction) error {
	return a.publish(ctx, amqp.EventDeleted, t)
}

func (a *AMQPPublisher) publish(ctx context.Context, kind amqp.EventKind, t core.Transaction) error {
	username, err := a.username(ctx, t.UserID)
	if err != nil {
		return err
	}

	ev := amqp.NewTransactionEvent(kind)
	ev.TransactionID = t.ID
	ev.UserID = t.UserID
	ev.Username = username
	ev.Type = string(t.Type)
	ev.Category = string(t.Category)
	ev.AmountCents = t.Amount.Cents
	ev.Date = t.Date.String()
	ev.Note = t.Note

	return a.publisher.PublishTransactionEvent(ctx, ev)
}

func (a *AMQPPublisher) username(ctx context.Context, userID int64) (string, error) {
	key := strconv.FormatInt(userID, 10)
	if name, ok := a.usernames.Get(key); ok {
		return name, nil
	}
	u, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup user %d: %w", userID, err)
	}
	a.usernames.Set(key, u.Username)
	return u.Username, nil
}
