package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"enroll/internal/ledger"
	"enroll/internal/registrant/models"
	"enroll/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS registrants (
	seq                 BIGSERIAL,
	id                  TEXT PRIMARY KEY,
	created_at          TIMESTAMPTZ NOT NULL,
	full_name           TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	phone               TEXT NOT NULL DEFAULT '',
	tax_id              TEXT NOT NULL DEFAULT '',
	city_country        TEXT NOT NULL DEFAULT '',
	adult               BOOLEAN NOT NULL DEFAULT FALSE,
	consent_terms       BOOLEAN NOT NULL DEFAULT FALSE,
	consent_withdrawal  BOOLEAN NOT NULL DEFAULT FALSE,
	installments        INTEGER NOT NULL DEFAULT 0,
	due_day             INTEGER NOT NULL DEFAULT 0,
	installment_amount  BIGINT NOT NULL DEFAULT 0,
	total_amount        BIGINT NOT NULL DEFAULT 0,
	status              TEXT NOT NULL DEFAULT '',
	paid_count          INTEGER NOT NULL DEFAULT 0,
	amount_paid         BIGINT NOT NULL DEFAULT 0,
	balance             BIGINT NOT NULL DEFAULT 0,
	percent_paid        INTEGER NOT NULL DEFAULT 0,
	last_transaction_id TEXT,
	slots               JSONB NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS registrants_tax_id_idx ON registrants (tax_id, seq DESC);
CREATE INDEX IF NOT EXISTS registrants_email_idx ON registrants (lower(email), seq DESC);
`

const columns = `id, created_at, full_name, email, phone, tax_id, city_country,
	adult, consent_terms, consent_withdrawal, installments, due_day,
	installment_amount, total_amount, status, paid_count, amount_paid, balance,
	percent_paid, last_transaction_id, slots`

// PostgresStore keeps one row per registrant; the 11 slots live in a JSONB
// array so field writes are a locked read-modify-write of the row.
type PostgresStore struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure registrants schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendNew(ctx context.Context, r *models.Registrant) error {
	args, err := rowArgs(r)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `INSERT INTO registrants (`+columns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21::jsonb)`, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("append registrant %s: %w", r.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("append registrant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Registrant, error) {
	return s.findOne(ctx, `SELECT `+columns+` FROM registrants WHERE id = $1`, id)
}

func (s *PostgresStore) FindByTaxID(ctx context.Context, taxID string) (*models.Registrant, error) {
	if taxID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `SELECT `+columns+` FROM registrants WHERE tax_id = $1 ORDER BY seq DESC LIMIT 1`, taxID)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, addr string) (*models.Registrant, error) {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, `SELECT `+columns+` FROM registrants WHERE lower(email) = $1 ORDER BY seq DESC LIMIT 1`, addr)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Registrant, error) {
	rows, err := s.db.Query(ctx, `SELECT `+columns+` FROM registrants ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	defer rows.Close()

	var out []*models.Registrant
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpsertFields(ctx context.Context, id string, values models.Values) error {
	return s.UpsertMany(ctx, []models.Patch{{ID: id, Values: values}})
}

// UpsertMany applies all patches in one transaction, locking each row for the
// read-modify-write.
func (s *PostgresStore) UpsertMany(ctx context.Context, patches []models.Patch) error {
	if len(patches) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin patch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, p := range patches {
		if _, ok := p.Values[models.FieldID]; ok {
			return fmt.Errorf("registrant id is immutable")
		}
		r, err := scan(tx.QueryRow(ctx, `SELECT `+columns+` FROM registrants WHERE id = $1 FOR UPDATE`, p.ID))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("patch registrant %s: %w", p.ID, sentinel.ErrNotFound)
			}
			return err
		}
		if err := models.ApplyAll(r, p.Values); err != nil {
			return err
		}
		args, err := rowArgs(r)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE registrants SET
			created_at = $2, full_name = $3, email = $4, phone = $5, tax_id = $6,
			city_country = $7, adult = $8, consent_terms = $9, consent_withdrawal = $10,
			installments = $11, due_day = $12, installment_amount = $13, total_amount = $14,
			status = $15, paid_count = $16, amount_paid = $17, balance = $18,
			percent_paid = $19, last_transaction_id = $20, slots = $21::jsonb
			WHERE id = $1`, args...)
		if err != nil {
			return fmt.Errorf("patch registrant %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit patch: %w", err)
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Registrant, error) {
	return scan(s.db.QueryRow(ctx, query, arg))
}

// slotJSON is the stored form of one ledger slot; dates are YYYY-MM-DD.
type slotJSON struct {
	Number   int    `json:"number"`
	DueDate  string `json:"due_date,omitempty"`
	Paid     bool   `json:"paid"`
	PaidDate string `json:"paid_date,omitempty"`
}

func encodeSlots(l ledger.Ledger) (string, error) {
	out := make([]slotJSON, 0, ledger.MaxSlots)
	for n := 1; n <= ledger.MaxSlots; n++ {
		s := l.Slot(n)
		out = append(out, slotJSON{
			Number:   n,
			DueDate:  isoDate(s.DueDate),
			Paid:     s.Paid,
			PaidDate: isoDate(s.PaidDate),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode slots: %w", err)
	}
	return string(b), nil
}

func decodeSlots(raw []byte) (ledger.Ledger, error) {
	var l ledger.Ledger
	for i := range l.Slots {
		l.Slots[i].Number = i + 1
	}
	var stored []slotJSON
	if err := json.Unmarshal(raw, &stored); err != nil {
		return l, fmt.Errorf("decode slots: %w", err)
	}
	for _, s := range stored {
		if s.Number < 1 || s.Number > ledger.MaxSlots {
			continue
		}
		slot := &l.Slots[s.Number-1]
		slot.Paid = s.Paid
		slot.DueDate, _ = ledger.ParseDate(s.DueDate)
		slot.PaidDate, _ = ledger.ParseDate(s.PaidDate)
	}
	return l, nil
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func rowArgs(r *models.Registrant) ([]any, error) {
	slots, err := encodeSlots(r.Ledger)
	if err != nil {
		return nil, err
	}
	return []any{
		r.ID, r.CreatedAt, r.FullName, r.Email, r.Phone, r.TaxID, r.CityCountry,
		r.Adult, r.ConsentTerms, r.ConsentWithdrawal,
		r.Plan.Installments, r.Plan.DueDay, int64(r.Plan.PerInstallment), int64(r.Plan.Total),
		string(r.Aggregates.Status), r.Aggregates.CountPaid, int64(r.Aggregates.AmountPaid),
		int64(r.Aggregates.Balance), r.Aggregates.PercentPaid, r.LastTransactionID, slots,
	}, nil
}

func scan(row pgx.Row) (*models.Registrant, error) {
	var r models.Registrant
	var perInstallment, total, paid, balance int64
	var status string
	var slots []byte
	err := row.Scan(
		&r.ID, &r.CreatedAt, &r.FullName, &r.Email, &r.Phone, &r.TaxID, &r.CityCountry,
		&r.Adult, &r.ConsentTerms, &r.ConsentWithdrawal,
		&r.Plan.Installments, &r.Plan.DueDay, &perInstallment, &total,
		&status, &r.Aggregates.CountPaid, &paid, &balance, &r.Aggregates.PercentPaid,
		&r.LastTransactionID, &slots,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan registrant: %w", err)
	}
	r.Plan.PerInstallment = ledger.Cents(perInstallment)
	r.Plan.Total = ledger.Cents(total)
	r.Aggregates.AmountPaid = ledger.Cents(paid)
	r.Aggregates.Balance = ledger.Cents(balance)
	r.Aggregates.Status = ledger.Status(status)
	r.Ledger, err = decodeSlots(slots)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
