package infrastructure

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mgcomp/autoresponder/internal/entities"
)

// MockModuleClient serves fixture data for the downstream business modules.
// It is the default implementation until the real modules are deployed.
type MockModuleClient struct{}

func NewMockModuleClient() *MockModuleClient {
	return &MockModuleClient{}
}

var mockCatalogo = []entities.CatalogItem{
	{SKU: "GN125", Nombre: "Moto Suzuki GN125", Marca: "suzuki", Modelo: "gn125", Precio: 2990, Moneda: "USD", Disponible: true},
	{SKU: "EN125", Nombre: "Moto Suzuki EN125-2A", Marca: "suzuki", Modelo: "en125", Precio: 2850, Moneda: "USD", Disponible: true},
	{SKU: "YBR125", Nombre: "Moto Yamaha YBR125", Marca: "yamaha", Modelo: "ybr125", Precio: 3100, Moneda: "USD", Disponible: true},
	{SKU: "CT100", Nombre: "Moto Bajaj CT100", Marca: "bajaj", Modelo: "ct100", Precio: 1690, Moneda: "USD", Disponible: false},
}

func (m *MockModuleClient) ConsultarPrecios(ctx context.Context, marca, modelo string) (entities.ModuleResult, error) {
	items := make([]entities.CatalogItem, 0, len(mockCatalogo))
	for _, item := range mockCatalogo {
		if marca != "" && !strings.EqualFold(item.Marca, marca) {
			continue
		}
		if modelo != "" && !strings.EqualFold(item.Modelo, modelo) {
			continue
		}
		items = append(items, item)
	}
	return entities.ModuleResult{Status: "ok", Items: items}, nil
}

func (m *MockModuleClient) CrearPedido(ctx context.Context, sku string, cantidad int) (entities.ModuleResult, error) {
	if cantidad <= 0 {
		cantidad = 1
	}

	var items []entities.CatalogItem
	for _, item := range mockCatalogo {
		if sku == "" || strings.EqualFold(item.SKU, sku) {
			items = append(items, item)
			if sku != "" {
				break
			}
		}
	}

	total := 0.0
	for _, item := range items {
		total += item.Precio * float64(cantidad)
	}

	return entities.ModuleResult{
		Status: "ok",
		Items:  items,
		Datos: map[string]any{
			"codigo_pedido": fmt.Sprintf("PED-%s", time.Now().Format("20060102150405")),
			"total":         total,
			"estado":        "pendiente",
		},
	}, nil
}

func (m *MockModuleClient) SimularFinanciamiento(ctx context.Context, modelo string, monto float64) (entities.ModuleResult, error) {
	precio := monto
	if precio == 0 {
		precio = 2990
		for _, item := range mockCatalogo {
			if strings.EqualFold(item.Modelo, modelo) {
				precio = item.Precio
				break
			}
		}
	}

	inicial := math.Round(precio * 0.30)
	cuota := math.Round((precio - inicial) / 12)

	return entities.ModuleResult{
		Status: "ok",
		Datos: map[string]any{
			"plan":        "ZAN 12",
			"inicial":     inicial,
			"cuotas":      12,
			"monto_cuota": cuota,
			"moneda":      "USD",
		},
	}, nil
}

// HTTPModuleClient talks to the real business modules over HTTP. Responses
// follow the same ModuleResult contract the mock serves.
type HTTPModuleClient struct {
	client *resty.Client
}

func NewHTTPModuleClient(baseURL string) *HTTPModuleClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &HTTPModuleClient{client: client}
}

func (h *HTTPModuleClient) ConsultarPrecios(ctx context.Context, marca, modelo string) (entities.ModuleResult, error) {
	var result entities.ModuleResult
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"marca": marca, "modelo": modelo}).
		SetResult(&result).
		Post("/v1/datos/precios")
	if err != nil {
		return entities.ModuleResult{}, fmt.Errorf("precios request: %w", err)
	}
	if resp.IsError() {
		return entities.ModuleResult{}, fmt.Errorf("precios request: status %d", resp.StatusCode())
	}
	return result, nil
}

func (h *HTTPModuleClient) CrearPedido(ctx context.Context, sku string, cantidad int) (entities.ModuleResult, error) {
	var result entities.ModuleResult
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"sku": sku, "cantidad": cantidad}).
		SetResult(&result).
		Post("/v1/datos/pedidos")
	if err != nil {
		return entities.ModuleResult{}, fmt.Errorf("pedidos request: %w", err)
	}
	if resp.IsError() {
		return entities.ModuleResult{}, fmt.Errorf("pedidos request: status %d", resp.StatusCode())
	}
	return result, nil
}

func (h *HTTPModuleClient) SimularFinanciamiento(ctx context.Context, modelo string, monto float64) (entities.ModuleResult, error) {
	var result entities.ModuleResult
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"modelo": modelo, "monto": monto}).
		SetResult(&result).
		Post("/v1/datos/financiamiento")
	if err != nil {
		return entities.ModuleResult{}, fmt.Errorf("financiamiento request: %w", err)
	}
	if resp.IsError() {
		return entities.ModuleResult{}, fmt.Errorf("financiamiento request: status %d", resp.StatusCode())
	}
	return result, nil
}
