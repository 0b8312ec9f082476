package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresClient struct {
	Pool *pgxpool.Pool
}

func NewPostgresClient(connString string) (*PostgresClient, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	// Pool configuration
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	client := &PostgresClient{Pool: pool}

	// Auto-migrate schema
	if err := client.Migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) Migrate() error {
	ctx := context.Background()

	// Companies
	_, err := p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS companias (
			id SERIAL PRIMARY KEY,
			nombre VARCHAR(255) NOT NULL,
			estado SMALLINT DEFAULT 1,
			creado_en TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create companias table: %w", err)
	}

	// AutoResponder devices (webhook credentials)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ar_dispositivos (
			id SERIAL PRIMARY KEY,
			compania_id INT NOT NULL REFERENCES companias(id),
			device_alias VARCHAR(64) NOT NULL,
			phone VARCHAR(20),
			token VARCHAR(128) NOT NULL,
			estado SMALLINT DEFAULT 1,
			UNIQUE (compania_id, device_alias)
		);
	`)
	if err != nil {
		return fmt.Errorf("create ar_dispositivos table: %w", err)
	}

	// Client phone -> company mapping (fallback resolution path)
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wa_clientes_compania (
			phone_cliente VARCHAR(20) PRIMARY KEY,
			compania_id INT NOT NULL REFERENCES companias(id),
			actualizado_en TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create wa_clientes_compania table: %w", err)
	}

	// Per-company config and reply policy
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS compania_config (
			compania_id INT PRIMARY KEY REFERENCES companias(id),
			prompts_version VARCHAR(16) DEFAULT 'v1',
			menu_productos BOOLEAN DEFAULT TRUE,
			cierre_venta BOOLEAN DEFAULT TRUE,
			envio_datos_pago BOOLEAN DEFAULT TRUE,
			panel_activo BOOLEAN DEFAULT TRUE,
			idioma VARCHAR(8) DEFAULT 'es',
			cta TEXT DEFAULT 'responde 1 para seguir'
		);
	`)
	if err != nil {
		return fmt.Errorf("create compania_config table: %w", err)
	}

	// Webhook signing secrets
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS compania_secrets (
			compania_id INT PRIMARY KEY REFERENCES companias(id),
			ar_webhook_secret VARCHAR(128)
		);
	`)
	if err != nil {
		return fmt.Errorf("create compania_secrets table: %w", err)
	}

	// Append-only audit events
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS eventos (
			id BIGSERIAL PRIMARY KEY,
			ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			compania_id INT,
			session_id VARCHAR(64),
			tipo VARCHAR(32) NOT NULL,
			payload JSONB
		);
	`)
	if err != nil {
		return fmt.Errorf("create eventos table: %w", err)
	}
	p.Pool.Exec(ctx, "CREATE INDEX IF NOT EXISTS idx_eventos_compania_ts ON eventos (compania_id, ts DESC);")

	// Operator accounts for the ops API
	_, err = p.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS usuarios (
			id SERIAL PRIMARY KEY,
			username VARCHAR(50) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) DEFAULT 'user',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create usuarios table: %w", err)
	}

	return nil
}

func (p *PostgresClient) Close() {
	p.Pool.Close()
}
