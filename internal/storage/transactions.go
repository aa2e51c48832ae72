package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type (
	// TransactionRepository stores transactions in transactions.json. All
	// operations take the repository mutex for their whole read-modify-write
	// cycle, so concurrent callers in the same process cannot interleave.
	TransactionRepository struct {
		mu     sync.Mutex
		path   string
		logger *log.Logger
	}

	// SaveResult reports what one save did.
	SaveResult struct {
		New        int
		Duplicates int
	}
)

func NewTransactionRepository(dataDir string, logger *log.Logger) (*TransactionRepository, error) {
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}
	return &TransactionRepository{
		path:   filepath.Join(dataDir, "transactions.json"),
		logger: logger.WithComponent(log.ComponentStorage),
	}, nil
}

// Fingerprint derives the duplicate-detection key for a transaction: ISO
// date, exact amount string and normalized description, plus the bank
// reference when present, pipe-joined. Distinct from the storage ID, which
// is assigned once and never derived from content.
func Fingerprint(t core.Transaction) string {
	parts := []string{
		t.Date.Format(dateLayout),
		t.Amount.String(),
		strings.ToLower(strings.TrimSpace(t.Description)),
	}
	if t.Reference != "" {
		parts = append(parts, t.Reference)
	}
	return strings.Join(parts, "|")
}

// LoadAll returns every stored transaction in file order.
func (r *TransactionRepository) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *TransactionRepository) loadLocked() ([]core.Transaction, error) {
	var file transactionsFile
	if err := readFileJSON(r.path, &file); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	txns := make([]core.Transaction, 0, len(file.Transactions))
	for _, rec := range file.Transactions {
		t, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, nil
}

func (r *TransactionRepository) saveLocked(txns []core.Transaction) error {
	file := transactionsFile{Transactions: make([]transactionRecord, 0, len(txns))}
	for _, t := range txns {
		file.Transactions = append(file.Transactions, toRecord(t))
	}
	if err := writeFileAtomic(r.path, file); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// Save appends a batch to the store. When skipDuplicates is set, incoming
// transactions whose fingerprint already exists (in the store or earlier in
// the batch) are dropped and counted; a forced save keeps them, so genuinely
// identical charges can coexist under distinct IDs. Transactions without an
// ID get one here.
func (r *TransactionRepository) Save(ctx context.Context, txns []core.Transaction, skipDuplicates bool) (SaveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.loadLocked()
	if err != nil {
		return SaveResult{}, err
	}

	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[Fingerprint(t)] = true
	}

	var result SaveResult
	for _, t := range txns {
		fp := Fingerprint(t)
		if skipDuplicates && seen[fp] {
			result.Duplicates++
			continue
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		seen[fp] = true
		existing = append(existing, t)
		result.New++
	}

	if err := r.saveLocked(existing); err != nil {
		return SaveResult{}, err
	}

	r.logger.InfoContext(ctx, "Transactions saved",
		log.FieldOperation, log.OpSave,
		log.FieldNew, result.New,
		log.FieldDuplicates, result.Duplicates,
		log.FieldCount, len(existing))
	return result, nil
}

// CheckDuplicates returns the subset of txns whose fingerprint already
// exists in the store.
func (r *TransactionRepository) CheckDuplicates(ctx context.Context, txns []core.Transaction) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.loadLocked()
	if err != nil {
		return nil, err
	}
	stored := make(map[string]bool, len(existing))
	for _, t := range existing {
		stored[Fingerprint(t)] = true
	}

	var dups []core.Transaction
	for _, t := range txns {
		if stored[Fingerprint(t)] {
			dups = append(dups, t)
		}
	}
	return dups, nil
}

// FindDuplicatesWithin returns the second and later occurrences of each
// fingerprint inside the batch itself, without touching the store.
func FindDuplicatesWithin(txns []core.Transaction) []core.Transaction {
	seen := make(map[string]bool, len(txns))
	var dups []core.Transaction
	for _, t := range txns {
		fp := Fingerprint(t)
		if seen[fp] {
			dups = append(dups, t)
			continue
		}
		seen[fp] = true
	}
	return dups
}

// GetByID returns the stored transaction with the given ID, or ErrNotFound.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.loadLocked()
	if err != nil {
		return core.Transaction{}, err
	}
	for _, t := range txns {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
}

// Update replaces the stored transaction with the same ID.
func (r *TransactionRepository) Update(ctx context.Context, txn core.Transaction) error {
	if txn.ID == "" {
		return fmt.Errorf("update transaction: missing ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.loadLocked()
	if err != nil {
		return err
	}
	for i, t := range txns {
		if t.ID == txn.ID {
			txns[i] = txn
			if err := r.saveLocked(txns); err != nil {
				return err
			}
			r.logger.InfoContext(ctx, "Transaction updated", log.FieldOperation, log.OpUpdate, "id", txn.ID)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", txn.ID, ErrNotFound)
}

// UpdateMany replaces every stored transaction whose ID appears in txns, in
// one rewrite. Transactions with unknown IDs are ignored; the count of
// applied updates is returned.
func (r *TransactionRepository) UpdateMany(ctx context.Context, txns []core.Transaction) (int, error) {
	byID := make(map[string]core.Transaction, len(txns))
	for _, t := range txns {
		if t.ID != "" {
			byID[t.ID] = t
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.loadLocked()
	if err != nil {
		return 0, err
	}
	updated := 0
	for i, t := range stored {
		if repl, ok := byID[t.ID]; ok {
			stored[i] = repl
			updated++
		}
	}
	if updated == 0 {
		return 0, nil
	}
	if err := r.saveLocked(stored); err != nil {
		return 0, err
	}
	r.logger.InfoContext(ctx, "Transactions updated", log.FieldOperation, log.OpUpdate, log.FieldCount, updated)
	return updated, nil
}

// Delete removes one transaction by ID.
func (r *TransactionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.DeleteMany(ctx, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteMany removes the transactions with the given IDs and returns how
// many were actually present.
func (r *TransactionRepository) DeleteMany(ctx context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.loadLocked()
	if err != nil {
		return 0, err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := txns[:0]
	for _, t := range txns {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	deleted := len(txns) - len(kept)
	if deleted == 0 {
		return 0, nil
	}
	if err := r.saveLocked(kept); err != nil {
		return 0, err
	}
	r.logger.InfoContext(ctx, "Transactions deleted", log.FieldOperation, log.OpDelete, log.FieldCount, deleted)
	return deleted, nil
}

// Replace removes the transactions with the given IDs and appends the given
// batch in one atomic rewrite. Used for splits, where the original must not
// outlive its children.
func (r *TransactionRepository) Replace(ctx context.Context, removeIDs []string, add []core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	txns, err := r.loadLocked()
	if err != nil {
		return err
	}

	drop := make(map[string]bool, len(removeIDs))
	for _, id := range removeIDs {
		drop[id] = true
	}
	kept := make([]core.Transaction, 0, len(txns)+len(add))
	for _, t := range txns {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	for _, t := range add {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		kept = append(kept, t)
	}

	if err := r.saveLocked(kept); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Transactions replaced",
		log.FieldOperation, log.OpUpdate,
		"removed", len(removeIDs),
		"added", len(add))
	return nil
}
