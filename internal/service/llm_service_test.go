package service

import (
	"testing"

	"fluxodocs/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"bare object",
			`{"tables":[]}`,
			`{"tables":[]}`,
		},
		{
			"markdown fenced",
			"```json\n{\"tables\":[{\"kind\":\"contract\"}]}\n```",
			`{"tables":[{"kind":"contract"}]}`,
		},
		{
			"leading and trailing prose",
			`Here is the result: {"document_type":"invoice","expenses":[]} Hope that helps!`,
			`{"document_type":"invoice","expenses":[]}`,
		},
		{
			"braces inside strings",
			`{"description":"valor {bruto} em R$","amount":10}`,
			`{"description":"valor {bruto} em R$","amount":10}`,
		},
		{
			"escaped quotes inside strings",
			`{"description":"obra \"fase 1\"","amount":10}`,
			`{"description":"obra \"fase 1\"","amount":10}`,
		},
		{
			"nested objects",
			`x {"a":{"b":{"c":1}}} y`,
			`{"a":{"b":{"c":1}}}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	for _, in := range []string{"", "no json here", `["array","only"]`, `{"unbalanced":`} {
		_, ok := extractJSONObject(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestParseEntityKind(t *testing.T) {
	kind, ok := parseEntityKind("contract")
	require.True(t, ok)
	assert.Equal(t, models.EntityKindContract, kind)

	kind, ok = parseEntityKind(" Receivables ")
	require.True(t, ok)
	assert.Equal(t, models.EntityKindReceivable, kind)

	kind, ok = parseEntityKind("EXPENSE")
	require.True(t, ok)
	assert.Equal(t, models.EntityKindExpense, kind)

	_, ok = parseEntityKind("transaction")
	assert.False(t, ok)
}

func TestGuidanceBlock(t *testing.T) {
	assert.Equal(t, "", guidanceBlock("  "))
	assert.Contains(t, guidanceBlock("only contracts"), "only contracts")
}
