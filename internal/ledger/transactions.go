package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wooodiest/HouseholdBudget-sub000/internal/common"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/events"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/model"
	"github.com/wooodiest/HouseholdBudget-sub000/internal/service"
)

// CreateTransactionInput carries the fields for a new transaction. Date and
// Tags are optional.
type CreateTransactionInput struct {
	UserID       string
	CategoryID   string
	Amount       decimal.Decimal
	CurrencyCode string
	Type         model.TransactionType
	Date         time.Time
	Description  string
	Tags         []string
}

// TransactionStore manages a user's transactions in a cache kept sorted
// ascending by date, and publishes a domain event on every mutation.
type TransactionStore struct {
	repo       service.Repository
	categories *CategoryStore
	publisher  *events.Publisher

	mu     sync.Mutex
	cache  map[string][]*model.Transaction
	loaded map[string]bool
}

// NewTransactionStore creates a transaction store backed by the repository.
func NewTransactionStore(repo service.Repository, categories *CategoryStore, publisher *events.Publisher) *TransactionStore {
	return &TransactionStore{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		cache:      make(map[string][]*model.Transaction),
		loaded:     make(map[string]bool),
	}
}

// Create validates, persists, and caches a new transaction, then publishes
// TransactionCreated. The transaction is committed before handlers run: a
// handler failure surfaces as the returned error, but the write itself is
// not rolled back.
func (s *TransactionStore) Create(ctx context.Context, input CreateTransactionInput) (*model.Transaction, error) {
	s.mu.Lock()

	if err := s.ensureLoadedLocked(ctx, input.UserID); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	txn, err := model.NewTransaction(
		input.UserID, input.CategoryID, input.Amount, input.CurrencyCode,
		input.Type, input.Date, input.Description, input.Tags,
	)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if err := s.repo.SaveTransaction(ctx, txn); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.insertSortedLocked(txn)
	s.mu.Unlock()

	// Published outside the lock: handlers read back through this store.
	if err := s.publisher.Publish(ctx, events.TransactionEvent{
		Kind:        events.TransactionCreated,
		Transaction: txn,
	}); err != nil {
		return nil, err
	}

	slog.Debug("created transaction", "id", txn.ID, "amount", txn.Amount, "currency", txn.CurrencyCode)
	return txn, nil
}

// Delete removes a transaction by id. TransactionDeleted is published before
// the entity leaves the backing store, so handlers observe the pre-deletion
// state.
func (s *TransactionStore) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	txn, _, err := s.findLocked(ctx, userID, id)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.TransactionEvent{
		Kind:        events.TransactionDeleted,
		Transaction: txn,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		return err
	}

	s.removeLocked(userID, id)
	return nil
}

// Get returns the user's transactions matching the filter, sorted ascending
// by date. All filter predicates combine with AND.
func (s *TransactionStore) Get(ctx context.Context, userID string, filter *service.TransactionFilter) ([]*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, err
	}

	var typeCategories map[string]struct{}
	if filter != nil && filter.CategoryType != nil {
		categories, err := s.categories.GetAll(ctx, userID)
		if err != nil {
			return nil, err
		}
		typeCategories = make(map[string]struct{})
		for _, cat := range categories {
			if cat.Type == *filter.CategoryType {
				typeCategories[cat.ID] = struct{}{}
			}
		}
	}

	var matched []*model.Transaction
	for _, txn := range s.cache[userID] {
		if matchesFilter(txn, filter, typeCategories) {
			matched = append(matched, txn)
		}
	}
	return matched, nil
}

// UpdateAmount replaces a transaction's amount.
func (s *TransactionStore) UpdateAmount(ctx context.Context, userID, id string, amount decimal.Decimal) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetAmount(amount)
	})
}

// UpdateCategory reassigns a transaction to another category.
func (s *TransactionStore) UpdateCategory(ctx context.Context, userID, id, categoryID string) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetCategory(categoryID)
	})
}

// UpdateCurrency replaces a transaction's currency code.
func (s *TransactionStore) UpdateCurrency(ctx context.Context, userID, id, currencyCode string) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetCurrency(currencyCode)
	})
}

// UpdateDate replaces a transaction's date and re-sorts the cache.
func (s *TransactionStore) UpdateDate(ctx context.Context, userID, id string, date time.Time) (*model.Transaction, error) {
	return s.update(ctx, userID, id, true, func(txn *model.Transaction) error {
		return txn.SetDate(date)
	})
}

// UpdateDescription replaces a transaction's description.
func (s *TransactionStore) UpdateDescription(ctx context.Context, userID, id, description string) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetDescription(description)
	})
}

// UpdateTags replaces a transaction's tag set.
func (s *TransactionStore) UpdateTags(ctx context.Context, userID, id string, tags []string) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetTags(tags)
	})
}

// UpdateType replaces a transaction's type.
func (s *TransactionStore) UpdateType(ctx context.Context, userID, id string, txType model.TransactionType) (*model.Transaction, error) {
	return s.update(ctx, userID, id, false, func(txn *model.Transaction) error {
		return txn.SetType(txType)
	})
}

// update applies a mutation to a copy of the cached transaction, persists it,
// swaps it into the cache, and publishes TransactionUpdated.
func (s *TransactionStore) update(ctx context.Context, userID, id string, resort bool, mutate func(*model.Transaction) error) (*model.Transaction, error) {
	s.mu.Lock()

	cached, index, err := s.findLocked(ctx, userID, id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	updated := cloneTransaction(cached)
	if err := mutate(updated); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	if err := s.repo.UpdateTransaction(ctx, updated); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if err := s.repo.SaveChanges(ctx); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.cache[userID][index] = updated
	if resort {
		sort.SliceStable(s.cache[userID], func(i, j int) bool {
			return s.cache[userID][i].Date.Before(s.cache[userID][j].Date)
		})
	}
	s.mu.Unlock()

	if err := s.publisher.Publish(ctx, events.TransactionEvent{
		Kind:        events.TransactionUpdated,
		Transaction: updated,
		Previous:    cached,
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *TransactionStore) findLocked(ctx context.Context, userID, id string) (*model.Transaction, int, error) {
	if err := s.ensureLoadedLocked(ctx, userID); err != nil {
		return nil, 0, err
	}
	for i, txn := range s.cache[userID] {
		if txn.ID == id {
			return txn, i, nil
		}
	}
	return nil, 0, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
}

func (s *TransactionStore) removeLocked(userID, id string) {
	txns := s.cache[userID]
	for i, txn := range txns {
		if txn.ID == id {
			s.cache[userID] = append(txns[:i], txns[i+1:]...)
			return
		}
	}
}

// insertSortedLocked inserts keeping ascending date order; equal dates keep
// insertion order.
func (s *TransactionStore) insertSortedLocked(txn *model.Transaction) {
	txns := s.cache[txn.UserID]
	pos := sort.Search(len(txns), func(i int) bool {
		return txns[i].Date.After(txn.Date)
	})
	txns = append(txns, nil)
	copy(txns[pos+1:], txns[pos:])
	txns[pos] = txn
	s.cache[txn.UserID] = txns
}

// ensureLoadedLocked lazily populates the per-user cache on first access.
func (s *TransactionStore) ensureLoadedLocked(ctx context.Context, userID string) error {
	if s.loaded[userID] {
		return nil
	}

	transactions, err := s.repo.GetTransactionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	s.cache[userID] = transactions
	s.loaded[userID] = true
	slog.Debug("loaded transaction cache", "user_id", userID, "count", len(transactions))
	return nil
}

func cloneTransaction(txn *model.Transaction) *model.Transaction {
	clone := *txn
	if len(txn.Tags) > 0 {
		clone.Tags = append([]string(nil), txn.Tags...)
	}
	return &clone
}
