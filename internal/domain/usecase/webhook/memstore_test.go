package webhook

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nerbixa/payment-reconciler/internal/domain/entity"
	errs "github.com/nerbixa/payment-reconciler/internal/domain/error"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/persistence"
)

// memStore is an in-memory UnitOfWork. Transactions are serialized by a single
// mutex, which gives the same isolation as row locks for these tests, and a
// failed transaction restores the snapshot taken when it began.
type memStore struct {
	txMu sync.Mutex

	users        map[string]entity.User
	transactions map[string]entity.Transaction // keyed by webhook event id
	events       map[string]entity.WebhookEvent
	nextID       int

	failOn map[string]error // repository method name -> injected error

	// racing holds rows another delivery commits just before this one's
	// transaction insert, keyed by webhook event id
	racing map[string]entity.Transaction
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]entity.User),
		transactions: make(map[string]entity.Transaction),
		events:       make(map[string]entity.WebhookEvent),
		failOn:       make(map[string]error),
		racing:       make(map[string]entity.Transaction),
	}
}

func (s *memStore) addUser(id string, available, used int) {
	s.users[id] = entity.User{ID: id, Email: id + "@example.com", AvailableGenerations: available, UsedGenerations: used}
}

func (s *memStore) user(id string) entity.User {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.users[id]
}

func (s *memStore) transactionCount() int {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return len(s.transactions)
}

func (s *memStore) transaction(webhookEventID string) (entity.Transaction, bool) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	txn, ok := s.transactions[webhookEventID]
	return txn, ok
}

func (s *memStore) event(eventID string) (entity.WebhookEvent, bool) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	event, ok := s.events[eventID]
	return event, ok
}

func (s *memStore) eventIDs() []string {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *memStore) injected(method string) error {
	return s.failOn[method]
}

func (s *memStore) Begin(ctx context.Context) (context.Context, error) {
	return ctx, errors.New("memStore supports WithinTransaction only")
}

func (s *memStore) Commit(context.Context) error   { return nil }
func (s *memStore) Rollback(context.Context) error { return nil }

func (s *memStore) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	users := cloneMap(s.users)
	transactions := cloneMap(s.transactions)
	events := cloneMap(s.events)

	if err := fn(ctx); err != nil {
		s.users, s.transactions, s.events = users, transactions, events
		return err
	}
	return nil
}

func (s *memStore) GetUserRepository(context.Context) persistence.UserRepository {
	return memUsers{s}
}

func (s *memStore) GetTransactionRepository(context.Context) persistence.TransactionRepository {
	return memTransactions{s}
}

func (s *memStore) GetWebhookEventRepository(context.Context) persistence.WebhookEventRepository {
	return memEvents{s}
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	user, ok := r.s.users[id]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return &user, nil
}

func (r memUsers) GetByIDForUpdate(ctx context.Context, id string) (*entity.User, error) {
	if err := r.s.injected("GetUserForUpdate"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r memUsers) Create(_ context.Context, user *entity.User) error {
	if _, ok := r.s.users[user.ID]; ok {
		return errs.ErrDuplicateUser
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) UpdateBalance(_ context.Context, user *entity.User) error {
	if err := r.s.injected("UpdateBalance"); err != nil {
		return err
	}
	if _, ok := r.s.users[user.ID]; !ok {
		return errs.ErrUserNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

type memTransactions struct{ s *memStore }

func (r memTransactions) GetByWebhookEventIDForUpdate(_ context.Context, webhookEventID string) (*entity.Transaction, error) {
	txn, ok := r.s.transactions[webhookEventID]
	if !ok {
		return nil, errs.ErrTransactionNotFound
	}
	return &txn, nil
}

func (r memTransactions) InsertIfNew(_ context.Context, txn *entity.Transaction) (bool, error) {
	if winner, ok := r.s.racing[txn.WebhookEventID]; ok {
		delete(r.s.racing, txn.WebhookEventID)
		r.s.transactions[txn.WebhookEventID] = winner
	}
	if _, ok := r.s.transactions[txn.WebhookEventID]; ok {
		return false, nil
	}
	r.s.nextID++
	if txn.ID == "" {
		txn.ID = "txn-" + strconv.Itoa(r.s.nextID)
	}
	r.s.transactions[txn.WebhookEventID] = *txn
	return true, nil
}

func (r memTransactions) Update(_ context.Context, txn *entity.Transaction) error {
	if _, ok := r.s.transactions[txn.WebhookEventID]; !ok {
		return errs.ErrTransactionNotFound
	}
	r.s.transactions[txn.WebhookEventID] = *txn
	return nil
}

func (r memTransactions) FindSuccessfulForUser(_ context.Context, userID, trackingID string) (*entity.Transaction, error) {
	for _, txn := range r.s.transactions {
		if txn.UserID != nil && *txn.UserID == userID && txn.TrackingID == trackingID && txn.IsSuccessful() {
			return &txn, nil
		}
	}
	return nil, errs.ErrTransactionNotFound
}

func (r memTransactions) ListAwaitingReconciliation(_ context.Context, limit int) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	for _, txn := range r.s.transactions {
		if txn.AwaitingReconciliation() && len(out) < limit {
			out = append(out, &txn)
		}
	}
	return out, nil
}

type memEvents struct{ s *memStore }

func (r memEvents) InsertIfNew(_ context.Context, event *entity.WebhookEvent) (bool, error) {
	if err := r.s.injected("InsertIfNew"); err != nil {
		return false, err
	}
	if _, ok := r.s.events[event.EventID]; ok {
		return false, nil
	}
	r.s.events[event.EventID] = *event
	return true, nil
}

func (r memEvents) MarkProcessed(_ context.Context, eventID string, at time.Time) error {
	event, ok := r.s.events[eventID]
	if !ok {
		return nil
	}
	event.Processed = true
	event.ProcessedAt = &at
	r.s.events[eventID] = event
	return nil
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
