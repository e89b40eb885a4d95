package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholders(1))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/vendas?sslmode=disable", pgx5URL("postgres://u:p@db:5432/vendas?sslmode=disable"))
	assert.Equal(t, "pgx5://db/vendas", pgx5URL("postgresql://db/vendas"))
	assert.Equal(t, "pgx5://db/vendas", pgx5URL("pgx5://db/vendas"))
}

func TestMigracionesEmbebidas(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
}

func TestToDeliveryJSON_IdaYVuelta(t *testing.T) {
	j := deliveryJSON{UseCustomerAddress: false, Street: "Rua Augusta", City: "São Paulo", State: "SP"}
	d := j.entity()
	assert.False(t, d.UseCustomerAddress)
	assert.Equal(t, "Rua Augusta", d.Address.Street)
	assert.Equal(t, j, toDeliveryJSON(d))
}
