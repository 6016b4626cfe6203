package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantitySuffix(t *testing.T) {
	tests := []struct {
		in    string
		label string
		qty   int
	}{
		{"Griddle (×3)", "Griddle", 3},
		{"Griddle (x2)", "Griddle", 2},
		{"Griddle", "Griddle", 1},
		{"  Fryer (× 10) ", "Fryer", 10},
		{"Oven (large)", "Oven (large)", 1},
		{"Mixer (×0)", "Mixer", 1},
		{"", "", 1},
	}
	for _, tc := range tests {
		label, qty := ParseQuantitySuffix(tc.in)
		assert.Equal(t, tc.label, label, "input %q", tc.in)
		assert.Equal(t, tc.qty, qty, "input %q", tc.in)
	}
}

func TestEquipmentSelectionUnmarshalString(t *testing.T) {
	var sel EquipmentSelection
	require.NoError(t, json.Unmarshal([]byte(`"Griddle (×3)"`), &sel))

	assert.Nil(t, sel.ItemID)
	assert.Equal(t, "Griddle", sel.Label)
	assert.Equal(t, 3, sel.Quantity)
}

func TestEquipmentSelectionUnmarshalObject(t *testing.T) {
	var sel EquipmentSelection
	require.NoError(t, json.Unmarshal([]byte(`{"itemId":"7cbf38b9-5ffe-4ab6-b2b3-3f5a94b1c6b0","quantity":2}`), &sel))

	require.NotNil(t, sel.ItemID)
	assert.Equal(t, 2, sel.Quantity)
}

func TestEquipmentSelectionUnmarshalObjectDefaults(t *testing.T) {
	var sel EquipmentSelection
	require.NoError(t, json.Unmarshal([]byte(`{"label":"Griddle (×4)"}`), &sel))

	assert.Equal(t, "Griddle", sel.Label)
	assert.Equal(t, 4, sel.Quantity)
}
