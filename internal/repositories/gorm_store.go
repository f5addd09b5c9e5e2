package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"querystack/internal/apperror"
)

// Connector hands out the shared database handle.
type Connector interface {
	DB(ctx context.Context) (*gorm.DB, error)
	Ping(ctx context.Context) error
}

// GORMStore is the GORM implementation of Store.
type GORMStore struct {
	pool Connector
	tx   *gorm.DB
}

var _ Store = (*GORMStore)(nil)

// NewGORMStore creates a Store backed by pool.
func NewGORMStore(pool Connector) *GORMStore {
	return &GORMStore{pool: pool}
}

func (s *GORMStore) Users() UserRepository               { return &GORMUserRepository{store: s} }
func (s *GORMStore) Accounts() AccountRepository         { return &GORMAccountRepository{store: s} }
func (s *GORMStore) Questions() QuestionRepository       { return &GORMQuestionRepository{store: s} }
func (s *GORMStore) Answers() AnswerRepository           { return &GORMAnswerRepository{store: s} }
func (s *GORMStore) Tags() TagRepository                 { return &GORMTagRepository{store: s} }
func (s *GORMStore) TagQuestions() TagQuestionRepository { return &GORMTagQuestionRepository{store: s} }
func (s *GORMStore) Votes() VoteRepository               { return &GORMVoteRepository{store: s} }
func (s *GORMStore) Collections() CollectionRepository   { return &GORMCollectionRepository{store: s} }

// Transaction runs fn inside a database transaction. Calls nested in an
// open transaction join it.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	db, err := s.pool.DB(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return fn(&GORMStore{pool: s.pool, tx: tx})
	})
	return translateError(err)
}

func (s *GORMStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *GORMStore) conn(ctx context.Context) (*gorm.DB, error) {
	if s.tx != nil {
		return s.tx.WithContext(ctx), nil
	}
	db, err := s.pool.DB(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translateError turns lost races into retryable conflicts. Errors that
// already carry a kind pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01", "55P03":
			return conflict(err)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return conflict(err)
		}
	}
	return err
}

// conflict keeps the driver error in the chain for logs only; the AppError
// a client sees carries no details.
func conflict(cause error) error {
	return fmt.Errorf("%w: %v", apperror.Conflict("The resource was modified concurrently, please retry"), cause)
}

var errNotFound = gorm.ErrRecordNotFound

// wrap annotates a store error, mapping a missing row to NotFound.
func wrap(err error, resource, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource)
	}
	return fmt.Errorf("%s %s: %w", op, strings.ToLower(resource), translateError(err))
}

// adjustExprs builds clamped counter updates: a column never drops below zero.
func adjustExprs(deltas Counters) map[string]any {
	updates := make(map[string]any, len(deltas))
	for col, d := range deltas {
		switch {
		case d > 0:
			updates[col] = gorm.Expr(col+" + ?", d)
		case d < 0:
			updates[col] = gorm.Expr("CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END", -d, -d)
		}
	}
	return updates
}

// likePattern escapes LIKE wildcards and lower-cases the term.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(term))) + "%"
}
