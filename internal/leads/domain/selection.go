package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// EquipmentSelection is the normalized form of one equipment choice on a lead.
// New submissions are resolved to an ItemID at the boundary; rows captured
// before normalization may carry only a free-text Label, possibly with an
// embedded quantity suffix already stripped into Quantity.
type EquipmentSelection struct {
	ItemID   *uuid.UUID `json:"itemId,omitempty"`
	Label    string     `json:"label,omitempty"`
	Quantity int        `json:"quantity"`
}

// quantitySuffix matches a trailing "(×N)" (or ASCII "(xN)") quantity marker.
var quantitySuffix = regexp.MustCompile(`^(.*?)\s*\((?:×|x)\s*(\d+)\)$`)

// ParseQuantitySuffix splits a display label from its optional quantity
// marker. "Griddle (×3)" yields ("Griddle", 3); a label without a marker
// yields the trimmed label and quantity 1.
func ParseQuantitySuffix(label string) (string, int) {
	trimmed := strings.TrimSpace(label)
	matches := quantitySuffix.FindStringSubmatch(trimmed)
	if len(matches) != 3 {
		return trimmed, 1
	}

	qty, err := strconv.Atoi(matches[2])
	if err != nil || qty < 1 {
		return strings.TrimSpace(matches[1]), 1
	}
	return strings.TrimSpace(matches[1]), qty
}

// UnmarshalJSON accepts both the normalized object form and the legacy plain
// string form ("Griddle (×3)").
func (s *EquipmentSelection) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		base, qty := ParseQuantitySuffix(label)
		s.ItemID = nil
		s.Label = base
		s.Quantity = qty
		return nil
	}

	type alias EquipmentSelection
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = EquipmentSelection(decoded)
	if s.Quantity < 1 {
		s.Quantity = 1
	}
	if s.Label != "" && s.ItemID == nil {
		base, qty := ParseQuantitySuffix(s.Label)
		if qty > 1 && s.Quantity == 1 {
			s.Quantity = qty
		}
		s.Label = base
	}
	return nil
}
