package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ukaddresskit/ukaddresskit/internal/parser"
)

// BatchStats summarises one bulk parsing run.
type BatchStats struct {
	Read    int
	Parsed  int
	Failed  int
	Elapsed time.Duration
}

// BulkParser structures every raw address in a source table and writes
// the results to a target table. Rows are parsed concurrently; a row
// that fails is logged and skipped, never aborting the run.
type BulkParser struct {
	Conn    *Connection
	Parser  *parser.Parser
	Workers int
}

type rawRow struct {
	id   int64
	text string
}

// Run reads (id, raw_address) rows from sourceTable, structures them and
// inserts one row per address into targetTable. A limit of 0 reads the
// whole table. The target table is expected to have the columns written
// by insertStructured.
func (b *BulkParser) Run(ctx context.Context, sourceTable, targetTable string, limit int) (BatchStats, error) {
	start := time.Now()
	stats := BatchStats{}

	rows, err := b.readRaw(ctx, sourceTable, limit)
	if err != nil {
		return stats, err
	}
	stats.Read = len(rows)
	log.Printf("bulk parse: %d addresses from %s", len(rows), sourceTable)

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.text
	}
	results, err := b.Parser.StructuredBatch(ctx, texts, b.Workers)
	if err != nil {
		return stats, fmt.Errorf("failed to parse batch: %w", err)
	}

	tx, err := b.Conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertStructured(targetTable))
	if err != nil {
		return stats, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range results {
		if res.Err != "" {
			stats.Failed++
			log.Printf("row %d: failed to parse %q: %s", rows[i].id, res.Input, res.Err)
			continue
		}
		a := res.Address
		_, err := stmt.ExecContext(ctx, rows[i].id, res.Input,
			nullIfEmpty(a.OrganisationName), nullIfEmpty(a.DepartmentName),
			nullIfEmpty(a.SubBuildingName), nullIfEmpty(a.BuildingName),
			nullIfEmpty(a.BuildingNumber), nullIfEmpty(a.StreetName),
			nullIfEmpty(a.Locality), nullIfEmpty(a.TownName),
			nullIfEmpty(a.Postcode), nullIfEmpty(a.County),
			nullIfEmpty(a.Outcode), nullIfEmpty(a.Incode),
			nullIfEmpty(string(a.PAOStartNumber)), nullIfEmpty(a.PAOStartSuffix),
			nullIfEmpty(string(a.PAOEndNumber)), nullIfEmpty(a.PAOEndSuffix),
			nullIfEmpty(string(a.SAOStartNumber)), nullIfEmpty(a.SAOStartSuffix),
			nullIfEmpty(string(a.SAOEndNumber)), nullIfEmpty(a.SAOEndSuffix))
		if err != nil {
			stats.Failed++
			log.Printf("row %d: failed to insert: %v", rows[i].id, err)
			continue
		}
		stats.Parsed++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit batch: %w", err)
	}
	stats.Elapsed = time.Since(start)
	log.Printf("bulk parse done: %d parsed, %d failed in %v", stats.Parsed, stats.Failed, stats.Elapsed)
	return stats, nil
}

func (b *BulkParser) readRaw(ctx context.Context, table string, limit int) ([]rawRow, error) {
	query := fmt.Sprintf(`SELECT id, raw_address FROM %s WHERE raw_address IS NOT NULL ORDER BY id`, table)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := b.Conn.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var out []rawRow
	for rows.Next() {
		var r rawRow
		if err := rows.Scan(&r.id, &r.text); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func insertStructured(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (
		source_id, raw_address,
		organisation_name, department_name, sub_building_name, building_name,
		building_number, street_name, locality, town_name, postcode, county,
		outcode, incode,
		pao_start_number, pao_start_suffix, pao_end_number, pao_end_suffix,
		sao_start_number, sao_start_suffix, sao_end_number, sao_end_suffix
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`, table)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
