package recording

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

// Exchange is one recorded request/response pair.
type Exchange struct {
	Key     string
	Seq     int
	Method  string
	Command string
	// RequestBody is the decoded JSON request body, nil when absent.
	RequestBody any

	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Write stores an exchange. Writing the same (Key, Seq) twice keeps the
// first row.
func (s *Store) Write(ctx context.Context, ex Exchange) error {
	bodyJSON, err := ir.MarshalCanonical(ex.RequestBody)
	if err != nil {
		return fmt.Errorf("write exchange: request body: %w", err)
	}
	headerJSON, err := marshalHeader(ex.Header)
	if err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}
	body := ex.Body
	if body == nil {
		body = []byte{}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exchanges
		(request_key, seq, method, command, request_body, status, response_headers, response_body, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_key, seq) DO NOTHING
	`,
		ex.Key,
		ex.Seq,
		ex.Method,
		ex.Command,
		string(bodyJSON),
		ex.Status,
		headerJSON,
		body,
		ex.RequestID,
	)
	if err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}
	return nil
}

// Lookup returns the exchange recorded for key at seq.
func (s *Store) Lookup(ctx context.Context, key string, seq int) (Exchange, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_key, seq, method, command, request_body, status, response_headers, response_body, request_id
		FROM exchanges
		WHERE request_key = ? AND seq = ?
	`, key, seq)

	ex, err := scanExchange(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exchange{}, false, nil
	}
	if err != nil {
		return Exchange{}, false, err
	}
	return ex, true, nil
}

// List returns every exchange in recording order.
//
// Returns an empty slice (not nil) for an empty store.
func (s *Store) List(ctx context.Context) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_key, seq, method, command, request_body, status, response_headers, response_body, request_id
		FROM exchanges
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []Exchange{}
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return exchanges, nil
}

// ForCommand returns the exchanges recorded for one command text, in
// recording order.
func (s *Store) ForCommand(ctx context.Context, command string) ([]Exchange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT request_key, seq, method, command, request_body, status, response_headers, response_body, request_id
		FROM exchanges
		WHERE command = ?
		ORDER BY id ASC
	`, command)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []Exchange{}
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return exchanges, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (Exchange, error) {
	var (
		ex         Exchange
		bodyJSON   string
		headerJSON string
	)
	err := row.Scan(
		&ex.Key,
		&ex.Seq,
		&ex.Method,
		&ex.Command,
		&bodyJSON,
		&ex.Status,
		&headerJSON,
		&ex.Body,
		&ex.RequestID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exchange{}, err
		}
		return Exchange{}, fmt.Errorf("scan exchange: %w", err)
	}

	if ex.RequestBody, err = ir.DecodeJSON([]byte(bodyJSON)); err != nil {
		return Exchange{}, fmt.Errorf("scan exchange %s: request body: %w", ex.Key, err)
	}
	if err := json.Unmarshal([]byte(headerJSON), &ex.Header); err != nil {
		return Exchange{}, fmt.Errorf("scan exchange %s: headers: %w", ex.Key, err)
	}
	return ex, nil
}

// marshalHeader writes headers as canonical JSON so equal header sets
// produce equal rows.
func marshalHeader(h http.Header) (string, error) {
	obj := make(map[string]any, len(h))
	for name, values := range h {
		obj[name] = values
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("headers: %w", err)
	}
	return string(data), nil
}
