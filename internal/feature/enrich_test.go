package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrichUppercaseNome(t *testing.T) {
	e := NewEnricher(DefaultRules())
	in := record("NOME", "Oficina Central", "id", 7.0)

	out := e.Enrich("Locais_oficina", in)

	name, _ := out.Get("name")
	desc, _ := out.Get("description")
	assert.Equal(t, "Oficina Central", name)
	assert.Equal(t, "Oficina Central", desc)
	assert.Equal(t, []string{"NOME", "id", "name", "description"}, out.Keys())

	_, touched := in.Get("name")
	assert.False(t, touched, "input record must not change")
}

func TestEnrichKeepsExistingName(t *testing.T) {
	e := NewEnricher(DefaultRules())
	in := record("NOME", "Oficina Central", "name", "Sede")

	out := e.Enrich("Locais_oficina", in)

	name, _ := out.Get("name")
	desc, _ := out.Get("description")
	assert.Equal(t, "Sede", name)
	assert.Equal(t, "Oficina Central", desc)
}

func TestEnrichKeyPriority(t *testing.T) {
	tests := []struct {
		name string
		in   Attributes
		want any
	}{
		{"lowercase wins", record("Nome", "C", "NOME", "B", "nome", "A"), "A"},
		{"uppercase before titlecase", record("Nome", "C", "NOME", "B"), "B"},
		{"empty values skipped", record("nome", "  ", "NOME", nil, "Nome", "C"), "C"},
		{"numbers kept as is", record("NOME", 42.0), 42.0},
		{"false skipped", record("nome", false, "NOME", "B"), "B"},
		{"zero skipped", record("nome", 0.0, "Nome", "C"), "C"},
	}

	e := NewEnricher(DefaultRules())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Enrich("Locais_oficina", tt.in)
			got, _ := out.Get("name")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnrichOtherDatasetsUntouched(t *testing.T) {
	e := NewEnricher(DefaultRules())
	in := record("NOME", "Escola")

	out := e.Enrich("Escolas", in)

	assert.Equal(t, in, out)
	_, ok := out.Get("name")
	assert.False(t, ok)
}

func TestEnrichNoCandidate(t *testing.T) {
	e := NewEnricher(DefaultRules())
	in := record("id", 1.0)

	out := e.Enrich("Locais_oficina", in)

	assert.Equal(t, []string{"id"}, out.Keys())
}

func TestEnrichCustomRule(t *testing.T) {
	e := NewEnricher([]Rule{{Dataset: "Bairros", Keys: []string{"BAIRRO"}, Targets: []string{"name"}}})

	out := e.Enrich("Bairros", record("BAIRRO", "Centro"))
	name, _ := out.Get("name")
	assert.Equal(t, "Centro", name)
	_, ok := out.Get("description")
	assert.False(t, ok)

	out = e.Enrich("Locais_oficina", record("NOME", "x"))
	_, ok = out.Get("name")
	assert.False(t, ok, "custom rules replace the defaults")
}

func TestEnrichFalsyOnlyLeavesRecord(t *testing.T) {
	e := NewEnricher(DefaultRules())
	in := record("nome", false, "NOME", 0.0)

	out := e.Enrich("Locais_oficina", in)

	assert.Equal(t, []string{"nome", "NOME"}, out.Keys())
}

func TestEnrichEmptyRulesDisabled(t *testing.T) {
	for _, rules := range [][]Rule{nil, {}} {
		e := NewEnricher(rules)
		out := e.Enrich("Locais_oficina", record("NOME", "x"))
		_, ok := out.Get("name")
		assert.False(t, ok)
	}
}
