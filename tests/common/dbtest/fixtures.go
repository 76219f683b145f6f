//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alumni-reserve/internal/domain/reservation"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestMember inserts a membership and a wallet account for a fresh
// subject and returns its id.
func CreateTestMember(t *testing.T, db DBLike, active bool, balanceCents int64) uuid.UUID {
	t.Helper()

	subjectID := uuid.New()
	ctx := context.Background()

	_, err := db.Exec(ctx,
		"INSERT INTO memberships (subject_id, active) VALUES ($1, $2)",
		subjectID, active)
	require.NoError(t, err)

	_, err = db.Exec(ctx,
		"INSERT INTO wallet_accounts (subject_id, balance_cents) VALUES ($1, $2)",
		subjectID, balanceCents)
	require.NoError(t, err)

	return subjectID
}

// CreateTestSubject inserts a membership with no wallet account. Wallet-less
// subjects settle everything through the gateway.
func CreateTestSubject(t *testing.T, db DBLike, active bool) uuid.UUID {
	t.Helper()

	subjectID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO memberships (subject_id, active) VALUES ($1, $2)",
		subjectID, active)
	require.NoError(t, err)

	return subjectID
}

// CreateTestSlot inserts the slot row and its tiers from a spec built by
// tests/common/builder.
func CreateTestSlot(t *testing.T, db DBLike, spec reservation.SlotSpec) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, `
		INSERT INTO slots (id, kind, resource_class, starts_at, ends_at, occupies_window,
		                   capacity, booking_deadline, cancel_deadline, admin_fee_cents, delivery_fee_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		spec.ID, string(spec.Kind), spec.ResourceClass, spec.Start, spec.End, spec.OccupiesWindow,
		spec.Capacity, spec.BookingDeadline, spec.CancelDeadline, spec.AdminFeeCents, spec.DeliveryFeeCents)
	require.NoError(t, err)

	for i, tier := range spec.Tiers {
		_, err := db.Exec(ctx, `
			INSERT INTO slot_tiers (slot_id, name, unit_fee_cents, counts_capacity, position)
			VALUES ($1, $2, $3, $4, $5)`,
			spec.ID, tier.Name, tier.UnitFeeCents, tier.CountsCapacity, i)
		require.NoError(t, err)
	}
}

func SetAccessPolicy(t *testing.T, db DBLike, resourceClass, policy string) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO access_policies (resource_class, policy) VALUES ($1, $2)
		ON CONFLICT (resource_class) DO UPDATE SET policy = EXCLUDED.policy`,
		resourceClass, policy)
	require.NoError(t, err)
}

func WalletBalance(t *testing.T, db DBLike, subjectID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(context.Background(),
		"SELECT balance_cents FROM wallet_accounts WHERE subject_id = $1", subjectID).Scan(&balance)
	require.NoError(t, err)
	return balance
}

func SlotReservedCount(t *testing.T, db DBLike, slotID uuid.UUID) int32 {
	t.Helper()

	var count int32
	err := db.QueryRow(context.Background(),
		"SELECT reserved_count FROM slots WHERE id = $1", slotID).Scan(&count)
	require.NoError(t, err)
	return count
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO access_policies (resource_class, policy) VALUES
		    ('certificate:transcript', 'members_only'),
		    ('event:annual-dinner', 'members_only'),
		    ('career:coaching', 'open'),
		    ('trip:alumni-tour', 'members_only')
		ON CONFLICT (resource_class) DO NOTHING;
	`)
	return err
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
