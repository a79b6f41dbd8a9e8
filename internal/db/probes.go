package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

const insertProbeSQL = `INSERT INTO bias_probes
	(id, candidate_id, audit_run_id, seq, scenario, probe_type, original_score,
	 probe_score, delta, components, explanation, flagged, error, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

// AppendProbes inserts all records in one transaction. The table rejects
// updates, so stored records never change.
func (db *DB) AppendProbes(ctx context.Context, probes []types.ProbeRecord) error {
	if len(probes) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range probes {
		components := p.Components
		if components == nil {
			components = map[string]float64{}
		}
		componentsJSON, err := toJSONB(components)
		if err != nil {
			return fmt.Errorf("failed to marshal probe components: %w", err)
		}
		batch.Queue(insertProbeSQL,
			p.ID, p.CandidateID, p.AuditRunID, p.Seq, p.Scenario, string(p.ProbeType), p.BaselineScore,
			p.ProbeScore, p.Delta, componentsJSON, p.Explanation, p.Flagged, p.Error, p.CreatedAt,
		)
	}

	err := pgx.BeginFunc(ctx, db.pool, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("failed to append probes: %w", err)
	}
	return nil
}

// ListProbes returns matching records ordered by audit run and variant order.
func (db *DB) ListProbes(ctx context.Context, filter pipeline.ProbeFilter) ([]types.ProbeRecord, error) {
	query := `SELECT id, candidate_id, audit_run_id, seq, scenario, probe_type, original_score,
	                 probe_score, delta, components, explanation, flagged, error, created_at
	          FROM bias_probes`
	var conds []string
	var args []any
	if filter.CandidateID != uuid.Nil {
		args = append(args, filter.CandidateID)
		conds = append(conds, fmt.Sprintf("candidate_id = $%d", len(args)))
	}
	if filter.AuditRunID != uuid.Nil {
		args = append(args, filter.AuditRunID)
		conds = append(conds, fmt.Sprintf("audit_run_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, audit_run_id, seq"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list probes: %w", err)
	}
	defer rows.Close()

	var out []types.ProbeRecord
	for rows.Next() {
		var p types.ProbeRecord
		var probeType string
		var componentsJSON []byte
		if err := rows.Scan(&p.ID, &p.CandidateID, &p.AuditRunID, &p.Seq, &p.Scenario, &probeType,
			&p.BaselineScore, &p.ProbeScore, &p.Delta, &componentsJSON, &p.Explanation, &p.Flagged,
			&p.Error, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan probe: %w", err)
		}
		p.ProbeType = types.ProbeType(probeType)
		if err := fromJSONB(componentsJSON, &p.Components); err != nil {
			return nil, fmt.Errorf("failed to decode probe components: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
