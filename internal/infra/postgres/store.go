package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/repository"
	"github.com/lib/pq"
)

// Store is the PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database at dsn and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: ping: %w", err)
	}
	return NewStore(db), nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const accountQuery = `SELECT account_id, customer_id, fin_ent_account_id, balance, access_id, access_url FROM accounts`

func (s *Store) ListAllAccounts(ctx context.Context) ([]*domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, accountQuery+` ORDER BY account_id`)
	if err != nil {
		return nil, fmt.Errorf("ListAllAccounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAllAccounts: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAllAccounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, accountQuery+` WHERE account_id = $1`, accountID)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetAccount %s: %w", accountID, repository.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return acc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*domain.Account, error) {
	var (
		acc                           domain.Account
		customer, finEnt, access, url sql.NullString
	)
	if err := row.Scan(&acc.ID, &customer, &finEnt, &acc.Balance, &access, &url); err != nil {
		return nil, err
	}
	acc.CustomerID = customer.String
	acc.FinancialEntityAccountID = finEnt.String
	acc.AccessID = access.String
	acc.AccessURL = url.String
	return &acc, nil
}

const transactionQuery = `
	SELECT id, account_id, operational_date, value_date, amount, temp_balance,
	       statement_description, statement_description_extended,
	       operational_date_position, key_value, create_ts, initial_id,
	       export_ts, receipt, receipt_checksum
	FROM transactions`

func (s *Store) ListLedger(ctx context.Context, accountID string) ([]domain.StoredRecord, error) {
	recs, err := s.queryTransactions(ctx, transactionQuery+`
	WHERE account_id = $1
	ORDER BY id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("ListLedger: %w", err)
	}
	return recs, nil
}

func (s *Store) ListStoredRecords(ctx context.Context, accountID string, from, to civil.Date) ([]domain.StoredRecord, error) {
	recs, err := s.queryTransactions(ctx, transactionQuery+`
	WHERE account_id = $1 AND operational_date BETWEEN $2::date AND $3::date
	ORDER BY id`, accountID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("ListStoredRecords: %w", err)
	}
	return recs, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.StoredRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []domain.StoredRecord
	for rows.Next() {
		var (
			rec                         domain.StoredRecord
			opDate, valDate             time.Time
			extended, receipt, checksum sql.NullString
			exportTS                    pq.NullTime
		)
		err := rows.Scan(
			&rec.ID,
			&rec.AccountID,
			&opDate,
			&valDate,
			&rec.Amount,
			&rec.TempBalance,
			&rec.StatementDescription,
			&extended,
			&rec.OperationalDatePosition,
			&rec.KeyValue,
			&rec.CreateTimeStamp,
			&rec.InitialID,
			&exportTS,
			&receipt,
			&checksum,
		)
		if err != nil {
			return nil, err
		}
		rec.OperationalDate = civil.DateOf(opDate)
		rec.ValueDate = civil.DateOf(valDate)
		rec.StatementDescriptionExtended = extended.String
		rec.Receipt = receipt.String
		rec.ReceiptChecksum = checksum.String
		if exportTS.Valid {
			rec.ExportTimeStamp = exportTS.Time
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

const insertTransaction = `
	INSERT INTO transactions (
		account_id, operational_date, value_date, amount, temp_balance,
		statement_description, statement_description_extended,
		operational_date_position, key_value, create_ts, initial_id,
		export_ts, receipt, receipt_checksum
	) VALUES ($1, $2::date, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (account_id, key_value) DO NOTHING`

// InsertTransactions appends the records in one transaction. Records whose
// key value is already stored for the account are skipped.
func (s *Store) InsertTransactions(ctx context.Context, recs []domain.FinalRecord) (n int, err error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("InsertTransactions: begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return 0, fmt.Errorf("InsertTransactions: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if r.AccountID == "" || r.KeyValue == "" {
			return 0, fmt.Errorf("InsertTransactions: record without account or key value")
		}
		res, err := stmt.ExecContext(ctx,
			r.AccountID,
			r.OperationalDate.String(),
			r.ValueDate.String(),
			r.Amount,
			r.TempBalance,
			r.StatementDescription,
			nullString(r.StatementDescriptionExtended),
			r.OperationalDatePosition,
			r.KeyValue,
			r.CreateTimeStamp,
			r.InitialID,
			pq.NullTime{Time: r.ExportTimeStamp, Valid: !r.ExportTimeStamp.IsZero()},
			nullString(r.Receipt),
			nullString(r.ReceiptChecksum),
		)
		if err != nil {
			return 0, fmt.Errorf("InsertTransactions: %s: %w", r.KeyValue, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("InsertTransactions: rows affected: %w", err)
		}
		n += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertTransactions: commit: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ensure Store implements repository.Store.
var _ repository.Store = (*Store)(nil)
