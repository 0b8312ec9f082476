package infrastructure

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockConsultarPreciosFilters(t *testing.T) {
	m := NewMockModuleClient()
	ctx := context.Background()

	res, err := m.ConsultarPrecios(ctx, "suzuki", "gn125")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "GN125", res.Items[0].SKU)
	assert.Equal(t, 2990.0, res.Items[0].Precio)

	res, err = m.ConsultarPrecios(ctx, "suzuki", "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)

	res, err = m.ConsultarPrecios(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, res.Items, 4)

	res, err = m.ConsultarPrecios(ctx, "vespa", "")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestMockCrearPedido(t *testing.T) {
	m := NewMockModuleClient()
	res, err := m.CrearPedido(context.Background(), "GN125", 2)
	require.NoError(t, err)

	assert.Equal(t, "ok", res.Status)
	assert.Equal(t, "pendiente", res.Datos["estado"])
	assert.Equal(t, 5980.0, res.Datos["total"])
	codigo, _ := res.Datos["codigo_pedido"].(string)
	assert.True(t, strings.HasPrefix(codigo, "PED-"))
}

func TestMockSimularFinanciamiento(t *testing.T) {
	m := NewMockModuleClient()

	res, err := m.SimularFinanciamiento(context.Background(), "gn125", 0)
	require.NoError(t, err)
	assert.Equal(t, "ZAN 12", res.Datos["plan"])
	assert.Equal(t, 897.0, res.Datos["inicial"])   // 30% of 2990
	assert.Equal(t, 174.0, res.Datos["monto_cuota"]) // (2990-897)/12 rounded

	res, err = m.SimularFinanciamiento(context.Background(), "", 1200)
	require.NoError(t, err)
	assert.Equal(t, 360.0, res.Datos["inicial"])
}
