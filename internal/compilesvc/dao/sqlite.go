package dao

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
	"modernc.org/sqlite"
)

// store aggregates both tables behind one *sql.DB, mirroring the
// multi-repository-over-one-handle shape a compile service needs: keys
// and history are logically distinct repositories but share a single
// sqlite file.
type store struct {
	fileName string
	db       *sql.DB
	keys     *keysDB
	history  *historyDB
}

// NewDatastore opens (creating if necessary) a sqlite-backed Store at
// storageDir/yunic-compilesvc.db.
func NewDatastore(storageDir string) (Store, error) {
	st := &store{fileName: "yunic-compilesvc.db"}

	fullPath := filepath.Join(storageDir, st.fileName)
	var err error
	st.db, err = sql.Open("sqlite", fullPath)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.keys = &keysDB{db: st.db}
	if err := st.keys.init(); err != nil {
		return nil, err
	}

	st.history = &historyDB{db: st.db}
	if err := st.history.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Keys() KeyRepository       { return s.keys }
func (s *store) History() HistoryRepository { return s.history }

func (s *store) Close() error {
	return s.db.Close()
}

type keysDB struct {
	db *sql.DB
}

func (repo *keysDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT NOT NULL PRIMARY KEY,
		label TEXT NOT NULL,
		hash BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		revoked INTEGER NOT NULL DEFAULT 0
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *keysDB) Create(ctx context.Context, key APIKey) (APIKey, error) {
	if key.ID == uuid.Nil {
		return APIKey{}, fmt.Errorf("key id must be set")
	}
	key.CreatedAt = time.Now()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, label, hash, created_at, revoked) VALUES (?, ?, ?, ?, 0)`,
		key.ID.String(), key.Label, key.Hash, key.CreatedAt.Unix(),
	)
	if err != nil {
		return APIKey{}, wrapDBError(err)
	}
	return key, nil
}

func (repo *keysDB) GetAll(ctx context.Context) ([]APIKey, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, label, hash, created_at, revoked FROM api_keys;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return all, err
		}
		all = append(all, k)
	}
	return all, wrapDBError(rows.Err())
}

func (repo *keysDB) GetByID(ctx context.Context, id uuid.UUID) (APIKey, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, label, hash, created_at, revoked FROM api_keys WHERE id = ?;`, id.String())
	return scanKey(row)
}

func (repo *keysDB) Revoke(ctx context.Context, id uuid.UUID) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE api_keys SET revoked = 1 WHERE id = ?;`, id.String())
	if err != nil {
		return wrapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (APIKey, error) {
	var k APIKey
	var id string
	var createdAt int64
	var revoked int
	err := row.Scan(&id, &k.Label, &k.Hash, &createdAt, &revoked)
	if err != nil {
		return APIKey{}, wrapDBError(err)
	}
	k.ID, err = uuid.Parse(id)
	if err != nil {
		return APIKey{}, fmt.Errorf("stored key id %q is invalid: %w", id, err)
	}
	k.CreatedAt = time.Unix(createdAt, 0)
	k.Revoked = revoked != 0
	return k, nil
}

type historyDB struct {
	db *sql.DB
}

func (repo *historyDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS compile_history (
		id TEXT NOT NULL PRIMARY KEY,
		key_id TEXT NOT NULL,
		target TEXT NOT NULL,
		source TEXT NOT NULL,
		success INTEGER NOT NULL,
		summary TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *historyDB) Create(ctx context.Context, rec CompileRecord) (CompileRecord, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return CompileRecord{}, fmt.Errorf("generate record id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = time.Now()

	payload, err := encodeHistoryPayload(rec.Diagnostics, rec.IRDump)
	if err != nil {
		return CompileRecord{}, fmt.Errorf("encode history payload: %w", err)
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO compile_history (id, key_id, target, source, success, summary, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.KeyID.String(), rec.Target, rec.Source, boolToInt(rec.Success), rec.Summary, payload, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return CompileRecord{}, wrapDBError(err)
	}
	return rec, nil
}

func (repo *historyDB) GetAll(ctx context.Context, keyID uuid.UUID) ([]CompileRecord, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, key_id, target, source, success, summary, payload, created_at
		 FROM compile_history WHERE key_id = ? ORDER BY created_at DESC;`, keyID.String())
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []CompileRecord
	for rows.Next() {
		rec, err := scanHistory(rows)
		if err != nil {
			return all, err
		}
		all = append(all, rec)
	}
	return all, wrapDBError(rows.Err())
}

func (repo *historyDB) GetByID(ctx context.Context, id uuid.UUID) (CompileRecord, error) {
	row := repo.db.QueryRowContext(ctx,
		`SELECT id, key_id, target, source, success, summary, payload, created_at
		 FROM compile_history WHERE id = ?;`, id.String())
	return scanHistory(row)
}

func scanHistory(row rowScanner) (CompileRecord, error) {
	var rec CompileRecord
	var id, keyID string
	var success int
	var payload string
	var createdAt int64

	err := row.Scan(&id, &keyID, &rec.Target, &rec.Source, &success, &rec.Summary, &payload, &createdAt)
	if err != nil {
		return CompileRecord{}, wrapDBError(err)
	}

	rec.ID, err = uuid.Parse(id)
	if err != nil {
		return CompileRecord{}, fmt.Errorf("stored record id %q is invalid: %w", id, err)
	}
	rec.KeyID, err = uuid.Parse(keyID)
	if err != nil {
		return CompileRecord{}, fmt.Errorf("stored key id %q is invalid: %w", keyID, err)
	}
	rec.Success = success != 0
	rec.CreatedAt = time.Unix(createdAt, 0)

	rec.Diagnostics, rec.IRDump, err = decodeHistoryPayload(payload)
	if err != nil {
		return CompileRecord{}, err
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// encodeHistoryPayload packs a compile result's diagnostics and rendered
// IR dump into one rezi-encoded, base64-wrapped text column, the same
// shape a single BLOB column storing a rezi-encoded value takes in the
// teacher's sqlite store, adapted to a plain TEXT column since sqlite3's
// driver here returns []byte-backed BLOBs as strings anyway.
func encodeHistoryPayload(diagnostics []string, irDump string) (string, error) {
	var data []byte

	enc, err := rezi.Enc(diagnostics)
	if err != nil {
		return "", err
	}
	data = append(data, enc...)

	enc, err = rezi.Enc(irDump)
	if err != nil {
		return "", err
	}
	data = append(data, enc...)

	return base64.StdEncoding.EncodeToString(data), nil
}

func decodeHistoryPayload(s string) ([]string, string, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrDecodingFailure, err)
	}

	var diagnostics []string
	n, err := rezi.Dec(data, &diagnostics)
	if err != nil {
		return nil, "", fmt.Errorf("%w: diagnostics: %s", ErrDecodingFailure, err)
	}
	data = data[n:]

	var irDump string
	if _, err := rezi.Dec(data, &irDump); err != nil {
		return nil, "", fmt.Errorf("%w: ir dump: %s", ErrDecodingFailure, err)
	}

	return diagnostics, irDump, nil
}

func wrapDBError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 {
			return ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
