package negotiation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists accepted negotiation rounds. Rounds append; the latest one
// per (rfq, vendor) is the operative outcome.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// Insert saves one resolved round and returns the stored row.
func (s *Store) Insert(ctx context.Context, round Round) (Round, error) {
	if s == nil || s.Pool == nil {
		return Round{}, errors.New("negotiation: store not configured")
	}
	outcome, err := json.Marshal(struct {
		Items   []ItemOutcome `json:"items"`
		Savings Savings       `json:"savings"`
	}{Items: round.Items, Savings: round.Savings})
	if err != nil {
		return Round{}, fmt.Errorf("negotiation: encode outcome: %w", err)
	}
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO negotiation_rounds (id, rfq_number, vendor_code, outcome, savings_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, rfq_number, vendor_code, outcome, created_at`,
		round.ID, round.RFQNumber, round.VendorCode, outcome, round.Savings.Total.String())
	return scanRound(row)
}

// ListByRFQ returns every stored round for an RFQ, newest first.
func (s *Store) ListByRFQ(ctx context.Context, rfqNumber string) ([]Round, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("negotiation: store not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, rfq_number, vendor_code, outcome, created_at
		FROM negotiation_rounds
		WHERE rfq_number = $1
		ORDER BY created_at DESC`, rfqNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rounds []Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

func scanRound(row pgx.Row) (Round, error) {
	var (
		round   Round
		payload []byte
	)
	if err := row.Scan(&round.ID, &round.RFQNumber, &round.VendorCode, &payload, &round.CreatedAt); err != nil {
		return Round{}, err
	}
	if len(payload) > 0 {
		var outcome struct {
			Items   []ItemOutcome `json:"items"`
			Savings Savings       `json:"savings"`
		}
		if err := json.Unmarshal(payload, &outcome); err != nil {
			return Round{}, fmt.Errorf("negotiation: decode outcome: %w", err)
		}
		round.Items = outcome.Items
		round.Savings = outcome.Savings
	}
	return round, nil
}
