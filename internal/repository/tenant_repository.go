package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// TenantRepository resolves tenant identity from device credentials or a
// known client phone, and serves per-tenant config and webhook secrets.
type TenantRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTenantRepository(db *pgxpool.Pool, logger *zap.Logger) *TenantRepository {
	return &TenantRepository{db: db, logger: logger}
}

// ResolveByDevice matches (alias, token) against active devices. The second
// return value is false both for "no such device" and for a data-access
// fault; the error distinguishes the two for callers that care.
func (r *TenantRepository) ResolveByDevice(ctx context.Context, alias, token string) (int, bool, error) {
	if alias == "" || token == "" {
		return 0, false, nil
	}

	var companiaID int
	err := r.db.QueryRow(ctx, `
		SELECT compania_id FROM ar_dispositivos
		WHERE device_alias = $1 AND token = $2 AND estado = 1
		LIMIT 1
	`, alias, token).Scan(&companiaID)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error("device lookup failed", zap.String("device", alias), zap.Error(err))
		return 0, false, fmt.Errorf("device lookup: %w", err)
	}
	return companiaID, true, nil
}

// ResolveByClientPhone normalizes the phone and looks up the stored
// client -> tenant mapping.
func (r *TenantRepository) ResolveByClientPhone(ctx context.Context, phone string) (int, bool, error) {
	normalized := NormalizePhone(phone)
	if normalized == "" {
		return 0, false, nil
	}

	var companiaID int
	err := r.db.QueryRow(ctx, `
		SELECT compania_id FROM wa_clientes_compania
		WHERE phone_cliente = $1
		LIMIT 1
	`, normalized).Scan(&companiaID)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		r.logger.Error("client lookup failed", zap.Error(err))
		return 0, false, fmt.Errorf("client lookup: %w", err)
	}
	return companiaID, true, nil
}

// UpsertClientMapping stores the client -> tenant association with
// last-write-wins semantics. Unnormalized numbers are never persisted.
func (r *TenantRepository) UpsertClientMapping(ctx context.Context, phone string, companiaID int) error {
	normalized := NormalizePhone(phone)
	if normalized == "" || companiaID == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO wa_clientes_compania (phone_cliente, compania_id, actualizado_en)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phone_cliente) DO UPDATE SET compania_id = EXCLUDED.compania_id, actualizado_en = NOW()
	`, normalized, companiaID)
	if err != nil {
		r.logger.Error("client mapping upsert failed", zap.Int("compania_id", companiaID), zap.Error(err))
		return fmt.Errorf("client mapping upsert: %w", err)
	}
	return nil
}

// GetConfig returns the stored config row, or the global defaults when the
// tenant has none. Absence is not an error; faults degrade to defaults.
func (r *TenantRepository) GetConfig(ctx context.Context, companiaID int) entities.TenantConfig {
	cfg := entities.DefaultTenantConfig()
	if companiaID == 0 {
		return cfg
	}

	err := r.db.QueryRow(ctx, `
		SELECT prompts_version, menu_productos, cierre_venta, envio_datos_pago, panel_activo, idioma, cta
		FROM compania_config
		WHERE compania_id = $1
		LIMIT 1
	`, companiaID).Scan(
		&cfg.PromptsVersion, &cfg.MenuProductos, &cfg.CierreVenta,
		&cfg.EnvioDatosPago, &cfg.PanelActivo, &cfg.Idioma, &cfg.CTA,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return entities.DefaultTenantConfig()
	}
	if err != nil {
		r.logger.Error("config lookup failed, using defaults", zap.Int("compania_id", companiaID), zap.Error(err))
		return entities.DefaultTenantConfig()
	}

	defaults := entities.DefaultTenantConfig()
	if cfg.PromptsVersion == "" {
		cfg.PromptsVersion = defaults.PromptsVersion
	}
	if cfg.Idioma == "" {
		cfg.Idioma = defaults.Idioma
	}
	return cfg
}

// GetSecret returns the webhook signing secret. Fail-closed: any fault or
// missing row reports no secret, and signature-gated requests must then be
// rejected by the caller.
func (r *TenantRepository) GetSecret(ctx context.Context, companiaID int) (string, bool) {
	if companiaID == 0 {
		return "", false
	}

	var secret *string
	err := r.db.QueryRow(ctx, `
		SELECT ar_webhook_secret FROM compania_secrets
		WHERE compania_id = $1
		LIMIT 1
	`, companiaID).Scan(&secret)

	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("secret lookup failed", zap.Int("compania_id", companiaID), zap.Error(err))
		}
		return "", false
	}
	if secret == nil || *secret == "" {
		return "", false
	}
	return *secret, true
}

func (r *TenantRepository) GetTenantInfo(ctx context.Context, companiaID int) (entities.Tenant, bool, error) {
	var t entities.Tenant
	err := r.db.QueryRow(ctx, `
		SELECT id, nombre, estado, creado_en FROM companias WHERE id = $1
	`, companiaID).Scan(&t.ID, &t.Nombre, &t.Estado, &t.CreadoEn)

	if errors.Is(err, pgx.ErrNoRows) {
		return entities.Tenant{}, false, nil
	}
	if err != nil {
		r.logger.Error("tenant lookup failed", zap.Int("compania_id", companiaID), zap.Error(err))
		return entities.Tenant{}, false, fmt.Errorf("tenant lookup: %w", err)
	}
	return t, true, nil
}
