package usecases

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/mgcomp/autoresponder/internal/entities"
)

func TestRedactorPreciosRendersItemsAndCTA(t *testing.T) {
	r := NewRedactor()
	data := entities.ModuleResult{
		Status: "ok",
		Items: []entities.CatalogItem{
			{Nombre: "Suzuki GN125", Precio: 2990, Moneda: "USD"},
			{Nombre: "Yamaha YBR125", Precio: 3100, Moneda: "USD"},
		},
	}
	cfg := entities.DefaultTenantConfig()

	reply := r.Reply("consulta_precios", data, cfg, "wa")
	assert.Contains(t, reply, "Suzuki GN125: 2.990,00 USD")
	assert.Contains(t, reply, "Yamaha YBR125: 3.100,00 USD")
	assert.True(t, strings.HasSuffix(reply, cfg.CTA), "reply must end with the tenant CTA")
}

func TestRedactorPreciosEmptyCatalog(t *testing.T) {
	r := NewRedactor()
	reply := r.Reply("consulta_precios", entities.ModuleResult{Status: "ok"}, entities.TenantConfig{}, "wa")
	assert.Contains(t, reply, "no tengo precios")
}

func TestRedactorPedido(t *testing.T) {
	r := NewRedactor()
	data := entities.ModuleResult{
		Status: "ok",
		Datos:  map[string]any{"codigo_pedido": "PED-1724900000", "estado": "pendiente"},
	}
	reply := r.Reply("crear_pedido", data, entities.TenantConfig{}, "wa")
	assert.Contains(t, reply, "PED-1724900000")
	assert.Contains(t, reply, "pendiente")
}

func TestRedactorPedidoMissingFieldsDegrade(t *testing.T) {
	r := NewRedactor()
	reply := r.Reply("crear_pedido", entities.ModuleResult{}, entities.TenantConfig{}, "wa")
	assert.Contains(t, reply, "N/A")
}

func TestRedactorGeneralTruncates(t *testing.T) {
	r := NewRedactor()
	data := entities.ModuleResult{
		Status: "ok",
		Datos:  map[string]any{"mensaje": strings.Repeat("bla ", 200)},
	}
	reply := r.Reply("consulta_general", data, entities.TenantConfig{}, "wa")
	assert.LessOrEqual(t, utf8.RuneCountInString(reply), maxGenericReplyLen)
	assert.True(t, strings.HasSuffix(reply, "..."))
}

func TestTruncateRunesKeepsValidUTF8(t *testing.T) {
	// Accented text long enough to force a cut; a byte-indexed slice would
	// split a rune here.
	long := strings.Repeat("ñandú güeña más allá ", 30)
	out := truncateRunes(long, 120)

	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 120, utf8.RuneCountInString(out))
	assert.True(t, strings.HasSuffix(out, "..."))

	short := "café"
	assert.Equal(t, short, truncateRunes(short, 120))
}

func TestRedactorNoCTAWhenEmpty(t *testing.T) {
	r := NewRedactor()
	reply := r.Reply("saludo", entities.ModuleResult{}, entities.TenantConfig{}, "wa")
	assert.False(t, strings.HasSuffix(reply, "\n"))
	assert.NotContains(t, reply, "responde 1 para seguir")
}

func TestFormatMonto(t *testing.T) {
	assert.Equal(t, "2.990,00", FormatMonto(2990))
	assert.Equal(t, "1.234.567,89", FormatMonto(1234567.89))
	assert.Equal(t, "0,00", FormatMonto(0))
	assert.Equal(t, "999,50", FormatMonto(999.5))
}

func TestFormatMontoCarriesRoundedCents(t *testing.T) {
	// Cents rounding to 100 must carry into the whole part, never render
	// as a three-digit cents field.
	assert.Equal(t, "1,00", FormatMonto(0.999))
	assert.Equal(t, "100,00", FormatMonto(99.999))
	assert.Equal(t, "1.000,00", FormatMonto(999.999))
}
