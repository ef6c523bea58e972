package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresStore persists vectors in a pgvector-extended Postgres table, one
// row per chunk, with metadata stored as JSONB for the filter language.
type postgresStore struct {
	pool      *pgxpool.Pool
	table     string
	dimension int
}

func newPostgresStore(ctx context.Context, dsn, collection string, dimension int) (Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	table := "embeddings_" + sanitize(collection)
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create vector extension: %w", err)
	}
	vecType := "vector"
	if dimension > 0 {
		vecType = fmt.Sprintf("vector(%d)", dimension)
	}
	_, err = pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  text TEXT NOT NULL,
  vec %s,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb
)`, table, vecType))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create embeddings table: %w", err)
	}
	return &postgresStore{pool: pool, table: table, dimension: dimension}, nil
}

func (p *postgresStore) Upsert(ctx context.Context, batch []Record) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, r := range batch {
		md, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s(id, text, vec, metadata) VALUES ($1, $2, $3::vector, $4)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, vec = EXCLUDED.vec, metadata = EXCLUDED.metadata
`, p.table), r.ID, r.Text, vectorLiteral(r.Vector), md)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *postgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.table), id)
	return err
}

func (p *postgresStore) Search(ctx context.Context, query []float32, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		k = 10
	}
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, text, vec <=> $1::vector AS distance, metadata FROM %s ORDER BY vec <=> $1::vector LIMIT $2`,
		p.table), vectorLiteral(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Match, 0, k)
	for rows.Next() {
		var (
			id, text string
			dist     float64
			mdRaw    []byte
		)
		if err := rows.Scan(&id, &text, &dist, &mdRaw); err != nil {
			return nil, err
		}
		var md map[string]any
		_ = json.Unmarshal(mdRaw, &md)
		if !filter.Match(md) {
			continue
		}
		out = append(out, Match{Record: Record{ID: id, Text: text, Metadata: md}, Distance: dist})
	}
	return out, rows.Err()
}

func (p *postgresStore) SearchWithThreshold(ctx context.Context, query []float32, k int, maxDistance float64, filter Filter) ([]Match, error) {
	matches, err := p.Search(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	out := matches[:0:0]
	for _, m := range matches {
		if m.Distance <= maxDistance {
			out = append(out, m)
		}
	}
	return out, nil
}

func (p *postgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, p.table)).Scan(&n)
	return n, err
}

func (p *postgresStore) Stats(ctx context.Context) (Stats, error) {
	count, err := p.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	s := Stats{Total: count, Dimension: p.dimension, ByFileType: map[string]int{}, ByProcessingMethod: map[string]int{}}
	rows, err := p.pool.Query(ctx, fmt.Sprintf(
		`SELECT metadata->>'file_type', metadata->>'processing_method' FROM %s`, p.table))
	if err != nil {
		return s, nil // best-effort breakdown; count above is already authoritative
	}
	defer rows.Close()
	for rows.Next() {
		var ft, pm *string
		if err := rows.Scan(&ft, &pm); err != nil {
			continue
		}
		if ft != nil {
			s.ByFileType[*ft]++
		}
		if pm != nil {
			s.ByProcessingMethod[*pm]++
		}
	}
	return s, nil
}

// Optimize runs Postgres's own index maintenance. ANALYZE is cheap and safe
// to run unconditionally; VACUUM (non-full) is additionally issued for large
// collections per spec §4.5's incremental policy.
func (p *postgresStore) Optimize(ctx context.Context) (OptimizeReport, error) {
	count, err := p.Count(ctx)
	if err != nil {
		return OptimizeReport{}, err
	}
	large := count >= LargeCollectionThreshold
	if _, err := p.pool.Exec(ctx, fmt.Sprintf(`ANALYZE %s`, p.table)); err != nil {
		return OptimizeReport{}, fmt.Errorf("analyze: %w", err)
	}
	if large {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf(`VACUUM %s`, p.table)); err != nil {
			return OptimizeReport{}, fmt.Errorf("vacuum: %w", err)
		}
	}
	return OptimizeReport{Collection: p.table, Incremental: large}, nil
}

// Reindex runs REINDEX TABLE for collections below LargeCollectionThreshold.
// REINDEX holds a lock for its duration, so large collections instead go
// through the checkpointed incremental path, where every batch runs ANALYZE
// over the whole table; that path does not rebuild any index.
func (p *postgresStore) Reindex(ctx context.Context, profile Profile, opts ...ReindexOption) (ReindexReport, error) {
	count, err := p.Count(ctx)
	if err != nil {
		return ReindexReport{}, err
	}
	resolved := ResolveProfile(profile, count)
	if count < LargeCollectionThreshold {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf(`REINDEX TABLE %s`, p.table)); err != nil {
			return ReindexReport{}, fmt.Errorf("reindex table: %w", err)
		}
		return ReindexReport{Collection: p.table, Profile: resolved, Processed: count}, nil
	}
	return runIncrementalReindex(ctx, p.table, count, resolved, func(ctx context.Context, offset, batchSize int) (int, error) {
		_, err := p.pool.Exec(ctx, fmt.Sprintf(
			`ANALYZE %s`, p.table))
		if err != nil {
			return 0, err
		}
		return batchSize, nil
	}, opts...)
}

func (p *postgresStore) Close() error {
	p.pool.Close()
	return nil
}

func vectorLiteral(v []float32) string {
	if len(v) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}
