package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"

	"github.com/jhoicas/metrologia-api/pkg/config"
	"github.com/jhoicas/metrologia-api/pkg/logger"
)

// slowQuery umbral a partir del cual una consulta se registra como lenta.
const slowQuery = 250 * time.Millisecond

// NewPool abre el pool de conexiones con DATABASE_URL o, si no está, con el DSN
// construido desde DB_HOST, DB_PORT, etc. Registra el codec NUMERIC -> decimal en
// cada conexión y verifica la conexión con un ping.
func NewPool(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	if log != nil {
		poolConfig.ConnConfig.Tracer = &queryTracer{log: log.Named("postgres")}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

type traceKey struct{}

type traceStart struct {
	sql string
	at  time.Time
}

// queryTracer registra consultas lentas o fallidas. Nunca registra los argumentos.
type queryTracer struct {
	log *logger.Logger
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{sql: data.SQL, at: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)
	switch {
	case data.Err != nil && data.Err != pgx.ErrNoRows:
		t.log.Warn().Err(data.Err).Str("sql", compactSQL(start.sql)).Dur("elapsed", elapsed).Msg("consulta fallida")
	case elapsed >= slowQuery:
		t.log.Warn().Str("sql", compactSQL(start.sql)).Dur("elapsed", elapsed).
			Int64("rows", data.CommandTag.RowsAffected()).Msg("consulta lenta")
	}
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
