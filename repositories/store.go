package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repositories is the set of table repositories bound to one executor:
// the connection pool or a single transaction.
type Repositories interface {
	Tournaments() TournamentRepository
	Members() MemberRepository
	Matches() MatchRepository
	AuditLogs() AuditLogRepository
	Users() UserRepository
}

// Store is the entity store. Repositories used outside WithinTx run each
// statement on its own; WithinTx gives fn repositories bound to one
// transaction that is committed when fn returns nil and rolled back when fn
// fails, panics or ctx is cancelled.
type Store interface {
	Repositories
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error
}

type postgresRepositories struct {
	tournaments TournamentRepository
	members     MemberRepository
	matches     MatchRepository
	auditLogs   AuditLogRepository
	users       UserRepository
}

func newPostgresRepositories(exec SQLExecutor) *postgresRepositories {
	return &postgresRepositories{
		tournaments: &postgresTournamentRepository{exec: exec},
		members:     &postgresMemberRepository{exec: exec},
		matches:     &postgresMatchRepository{exec: exec},
		auditLogs:   &postgresAuditLogRepository{exec: exec},
		users:       &postgresUserRepository{exec: exec},
	}
}

func (r *postgresRepositories) Tournaments() TournamentRepository { return r.tournaments }
func (r *postgresRepositories) Members() MemberRepository         { return r.members }
func (r *postgresRepositories) Matches() MatchRepository          { return r.matches }
func (r *postgresRepositories) AuditLogs() AuditLogRepository     { return r.auditLogs }
func (r *postgresRepositories) Users() UserRepository             { return r.users }

type postgresStore struct {
	*postgresRepositories
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{
		postgresRepositories: newPostgresRepositories(db),
		db:                   db,
	}
}

func (s *postgresStore) WithinTx(ctx context.Context, fn func(tx Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", handleTxError(cErr))
		}
	}()

	return fn(newPostgresRepositories(tx))
}
