package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"lpstudio/api/database"
	"lpstudio/api/utils"
)

// ErrRemoteUnavailable is returned by every table operation when the
// remote backend was never configured (no DATABASE_URL). The fallback
// policy treats it like any other remote failure.
var ErrRemoteUnavailable = errors.New("remote backend not configured")

// Remote table names. The table set is fixed; operations reject anything
// outside it so bucket constants are the only way in.
const (
	TableClients = "clients"
	TablePages   = "lps"
	TableLeads   = "lp_leads"
)

func validTable(table string) bool {
	switch table {
	case TableClients, TablePages, TableLeads:
		return true
	}
	return false
}

// TableClient is the table-style remote collaborator: select/insert/
// update/delete against named tables holding schemaless JSONB rows.
type TableClient struct {
	db *sql.DB
}

// NewTableClient wraps the remote connection. A nil client is valid and
// degrades every call to ErrRemoteUnavailable.
func NewTableClient(dbClient *database.DBClient) *TableClient {
	if dbClient == nil {
		return &TableClient{}
	}
	return &TableClient{db: dbClient.DB}
}

func (t *TableClient) check(table string) error {
	if t == nil || t.db == nil {
		return ErrRemoteUnavailable
	}
	if !validTable(table) {
		return fmt.Errorf("unknown remote table %q", table)
	}
	return nil
}

// Select returns all rows of a table, most recent first.
func (t *TableClient) Select(ctx context.Context, table string) ([]Record, error) {
	if err := t.check(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT data FROM %s ORDER BY criado_em DESC`, table)
	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", table, err)
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("malformed row in %s: %w", table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error reading %s: %w", table, err)
	}
	return records, nil
}

// Get returns one row by id, or nil without error when absent.
func (t *TableClient) Get(ctx context.Context, table, id string) (Record, error) {
	if err := t.check(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, table)
	var raw []byte
	err := t.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", table, id, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("malformed row %s/%s: %w", table, id, err)
	}
	return rec, nil
}

// Insert stores a new row.
func (t *TableClient) Insert(ctx context.Context, table string, rec Record) error {
	if err := t.check(table); err != nil {
		return err
	}

	id := fmt.Sprint(rec["id"])
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", table, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, data) VALUES ($1, $2)`, table)
	if _, err := t.db.ExecContext(ctx, query, id, data); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Update merges patch into the stored row (JSONB concatenation is a
// shallow merge, matching the local repository) and returns the result,
// or nil when the id does not exist.
func (t *TableClient) Update(ctx context.Context, table, id string, patch Record) (Record, error) {
	if err := t.check(table); err != nil {
		return nil, err
	}

	patch = cloneRecord(patch)
	delete(patch, "id")
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch for %s: %w", table, err)
	}

	query := fmt.Sprintf(`UPDATE %s SET data = data || $2 WHERE id = $1 RETURNING data`, table)
	var raw []byte
	err = t.db.QueryRowContext(ctx, query, id, data).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", table, id, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("malformed row %s/%s: %w", table, id, err)
	}
	return rec, nil
}

// Delete removes a row. Deleting an absent id is a no-op.
func (t *TableClient) Delete(ctx context.Context, table, id string) error {
	if err := t.check(table); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table)
	if _, err := t.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", table, id, err)
	}
	return nil
}

// FallbackRepo is the explicit remote-first policy: every operation tries
// the remote table once and, on any failure, logs a warning and runs the
// local repository instead. There is no retry and no re-sync — a record
// written locally during an outage stays local when connectivity returns.
type FallbackRepo struct {
	table  string
	remote *TableClient
	local  *Repo
}

func NewFallbackRepo(table string, remote *TableClient, local *Repo) *FallbackRepo {
	return &FallbackRepo{table: table, remote: remote, local: local}
}

func (f *FallbackRepo) warn(op string, err error) {
	log.Printf("WARN: remote %s on %s failed, falling back to local: %v", op, f.table, err)
}

func (f *FallbackRepo) List(ctx context.Context) []Record {
	records, err := f.remote.Select(ctx, f.table)
	if err != nil {
		f.warn("select", err)
		return f.local.List()
	}
	return records
}

func (f *FallbackRepo) Get(ctx context.Context, id string) Record {
	rec, err := f.remote.Get(ctx, f.table, id)
	if err != nil {
		f.warn("get", err)
		return f.local.Get(id)
	}
	return rec
}

func (f *FallbackRepo) Add(ctx context.Context, rec Record) (Record, error) {
	rec = cloneRecord(rec)
	if rec["id"] == nil || rec["id"] == "" {
		rec["id"] = utils.NewEventID()
	}
	if err := f.remote.Insert(ctx, f.table, rec); err != nil {
		f.warn("insert", err)
		return f.local.Add(rec)
	}
	return rec, nil
}

func (f *FallbackRepo) Update(ctx context.Context, id string, patch Record) (Record, error) {
	rec, err := f.remote.Update(ctx, f.table, id, patch)
	if err != nil {
		f.warn("update", err)
		return f.local.Update(id, patch)
	}
	return rec, nil
}

func (f *FallbackRepo) Remove(ctx context.Context, id string) error {
	if err := f.remote.Delete(ctx, f.table, id); err != nil {
		f.warn("delete", err)
		return f.local.Remove(id)
	}
	return nil
}
