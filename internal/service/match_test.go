package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "joao silva", NormalizeName("João  Silva"))
	assert.Equal(t, "construtora horizonte", NormalizeName("  CONSTRUTORA   Horizonte "))
	assert.Equal(t, "", NormalizeName("   "))
}

func buildIndex(threshold float64, refs ...ContractRef) *ContractIndex {
	idx := NewContractIndex(threshold)
	for _, r := range refs {
		idx.Add(r)
	}
	idx.Freeze()
	return idx
}

func TestContractIndex_ExactAndAccentInsensitive(t *testing.T) {
	id := uuid.New()
	idx := buildIndex(0.62, ContractRef{ID: id, ClientName: "João Silva", ProjectName: "Casa da Praia"})

	ref, ok := idx.Match("joao silva casa da praia")
	require.True(t, ok)
	assert.Equal(t, id, ref.ID)

	ref, ok = idx.Match("JOÃO SILVA Casa da Praia")
	require.True(t, ok)
	assert.Equal(t, id, ref.ID)
}

func TestContractIndex_SubstringMention(t *testing.T) {
	id := uuid.New()
	idx := buildIndex(0.62, ContractRef{ID: id, ClientName: "João Silva", ProjectName: "Casa da Praia"})

	// Receivable rows often carry only the client name.
	ref, ok := idx.Match("João Silva")
	require.True(t, ok)
	assert.Equal(t, id, ref.ID)
}

func TestContractIndex_FuzzyTypo(t *testing.T) {
	id := uuid.New()
	idx := buildIndex(0.62, ContractRef{ID: id, ClientName: "Construtora Horizonte", ProjectName: "Reforma Sede"})

	ref, ok := idx.Match("construtora horizonte reforma sede ltda")
	require.True(t, ok)
	assert.Equal(t, id, ref.ID)
}

func TestContractIndex_BelowThreshold(t *testing.T) {
	idx := buildIndex(0.62, ContractRef{ID: uuid.New(), ClientName: "João Silva", ProjectName: "Casa da Praia"})

	_, ok := idx.Match("Padaria São José Sistema de Pedidos")
	assert.False(t, ok)
}

func TestContractIndex_EmptyMentionAndEmptyIndex(t *testing.T) {
	idx := buildIndex(0.62, ContractRef{ID: uuid.New(), ClientName: "A", ProjectName: "B"})
	_, ok := idx.Match("   ")
	assert.False(t, ok)

	empty := NewContractIndex(0.62)
	empty.Freeze()
	_, ok = empty.Match("anything")
	assert.False(t, ok)
}

func TestContractIndex_LastAddWinsForDuplicateKey(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	idx := buildIndex(0.62,
		ContractRef{ID: first, ClientName: "João Silva", ProjectName: "Casa da Praia"},
		ContractRef{ID: second, ClientName: "joao silva", ProjectName: "casa da praia"},
	)
	require.Equal(t, 1, idx.Len())

	ref, ok := idx.Match("joao silva casa da praia")
	require.True(t, ok)
	assert.Equal(t, second, ref.ID)
}
