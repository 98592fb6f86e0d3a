// Package mapbuilder implements the Map Builder (SPEC_FULL.md §4.1): it
// turns the declarative register-map JSON into typed Binding records,
// tolerating item-level mistakes (logged and counted, item dropped)
// while treating malformed JSON as fatal.
//
// Grounded on original_source/modbus_south.cpp's JSON map parsing (both
// the legacy top-level objects and the "values" array), with the
// "last-item-added" latch deliberately not reproduced (SPEC_FULL.md §9).
package mapbuilder

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tamzrod/modbus-core/internal/regkind"
)

// Result is everything one Parse call produces: the bindings that built
// cleanly, plus every item-level error encountered along the way.
type Result struct {
	Bindings   []Binding
	ItemErrors []error
}

type topDoc struct {
	Coils          json.RawMessage   `json:"coils"`
	Inputs         json.RawMessage   `json:"inputs"`
	Registers      json.RawMessage   `json:"registers"`
	InputRegisters json.RawMessage   `json:"inputRegisters"`
	Values         []json.RawMessage `json:"values"`
}

// Parse builds bindings from raw map JSON. A malformed document is the
// only fatal error; every other problem is an item-level error appended
// to Result.ItemErrors, with the cycle completing on whatever bindings
// did build (SPEC_FULL.md §4.1).
func Parse(raw []byte, defaultSlave uint16) (*Result, error) {
	if len(raw) == 0 {
		return &Result{}, nil
	}

	var doc topDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("mapbuilder: invalid map JSON: %w", err)
	}

	res := &Result{}
	res.parseLegacy(doc.Coils, regkind.Coil, defaultSlave)
	res.parseLegacy(doc.Inputs, regkind.DiscreteInput, defaultSlave)
	res.parseLegacy(doc.Registers, regkind.HoldingRegister, defaultSlave)
	res.parseLegacy(doc.InputRegisters, regkind.InputRegister, defaultSlave)

	for _, item := range doc.Values {
		b, err := parseValueItem(item, defaultSlave)
		if err != nil {
			res.ItemErrors = append(res.ItemErrors, err)
			continue
		}
		res.Bindings = append(res.Bindings, b)
	}

	return res, nil
}

func (r *Result) parseLegacy(raw json.RawMessage, kind regkind.Kind, defaultSlave uint16) {
	if len(raw) == 0 {
		return
	}
	var m map[string]json.Number
	if err := json.Unmarshal(raw, &m); err != nil {
		r.ItemErrors = append(r.ItemErrors, fmt.Errorf("mapbuilder: legacy %s map: %w", kind, err))
		return
	}

	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		addr, err := m[name].Int64()
		if err != nil || addr < 0 || addr > 0xFFFF {
			r.ItemErrors = append(r.ItemErrors, fmt.Errorf("mapbuilder: legacy %s entry %q: invalid address", kind, name))
			continue
		}
		r.Bindings = append(r.Bindings, Binding{
			DatapointName: name,
			SlaveID:       defaultSlave,
			Kind:          kind,
			IsScalar:      true,
			RegisterNo:    uint16(addr),
			Scale:         1,
			Offset:        0,
		})
	}
}

type valueItem struct {
	Name          *string         `json:"name"`
	Slave         json.RawMessage `json:"slave"`
	AssetName     json.RawMessage `json:"assetName"`
	Scale         json.RawMessage `json:"scale"`
	Offset        json.RawMessage `json:"offset"`
	Type          *string         `json:"type"`
	Swap          *string         `json:"swap"`
	Coil          json.RawMessage `json:"coil"`
	Input         json.RawMessage `json:"input"`
	Register      json.RawMessage `json:"register"`
	InputRegister json.RawMessage `json:"inputRegister"`
}

func parseValueItem(raw json.RawMessage, defaultSlave uint16) (Binding, error) {
	var it valueItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return Binding{}, fmt.Errorf("mapbuilder: value item: malformed: %w", err)
	}

	if it.Name == nil || *it.Name == "" {
		return Binding{}, fmt.Errorf("mapbuilder: value item: missing name")
	}

	b := Binding{
		DatapointName: *it.Name,
		SlaveID:       defaultSlave,
		Scale:         1,
		Offset:        0,
	}

	if len(it.Slave) > 0 {
		n, ok := asInt(it.Slave)
		if !ok {
			return Binding{}, fmt.Errorf("mapbuilder: value item %q: non-integer slave", *it.Name)
		}
		b.SlaveID = uint16(n)
	}

	if len(it.AssetName) > 0 {
		s, ok := asString(it.AssetName)
		if !ok {
			return Binding{}, fmt.Errorf("mapbuilder: value item %q: non-string assetName", *it.Name)
		}
		b.AssetName = s
	}

	if len(it.Scale) > 0 {
		f, ok := asFloat(it.Scale)
		if !ok {
			return Binding{}, fmt.Errorf("mapbuilder: value item %q: non-number scale", *it.Name)
		}
		b.Scale = f
	}

	if len(it.Offset) > 0 {
		f, ok := asFloat(it.Offset)
		if !ok {
			return Binding{}, fmt.Errorf("mapbuilder: value item %q: non-number offset", *it.Name)
		}
		b.Offset = f
	}

	if it.Type != nil && *it.Type == "float" {
		b.Flags |= FlagFloat
	}
	if it.Swap != nil {
		switch *it.Swap {
		case "bytes":
			b.Flags |= FlagSwapBytes
		case "words":
			b.Flags |= FlagSwapWords
		case "both":
			b.Flags |= FlagSwapBytes | FlagSwapWords
		case "none", "":
		default:
			return Binding{}, fmt.Errorf("mapbuilder: value item %q: unknown swap %q", *it.Name, *it.Swap)
		}
	}

	sourceCount := 0
	setSource := func(kind regkind.Kind, raw json.RawMessage) error {
		sourceCount++
		if addr, ok := asUint16(raw); ok {
			b.Kind = kind
			b.IsScalar = true
			b.RegisterNo = addr
			return nil
		}
		if regs, ok := asUint16Slice(raw); ok {
			if kind == regkind.Coil || kind == regkind.DiscreteInput {
				return fmt.Errorf("mapbuilder: value item %q: %s does not support composite addressing", *it.Name, kind)
			}
			b.Kind = kind
			b.IsScalar = false
			b.Registers = regs
			return nil
		}
		return fmt.Errorf("mapbuilder: value item %q: wrong-typed %s value", *it.Name, kind)
	}

	var sourceErr error
	if len(it.Coil) > 0 {
		sourceErr = setSource(regkind.Coil, it.Coil)
	}
	if len(it.Input) > 0 {
		sourceErr = setSource(regkind.DiscreteInput, it.Input)
	}
	if len(it.Register) > 0 {
		sourceErr = setSource(regkind.HoldingRegister, it.Register)
	}
	if len(it.InputRegister) > 0 {
		sourceErr = setSource(regkind.InputRegister, it.InputRegister)
	}

	if sourceCount != 1 {
		return Binding{}, fmt.Errorf("mapbuilder: value item %q: exactly one source field required, found %d", *it.Name, sourceCount)
	}
	if sourceErr != nil {
		return Binding{}, sourceErr
	}

	if b.Flags.Has(FlagFloat) && (b.IsScalar || len(b.Registers) != 2) {
		return Binding{}, fmt.Errorf("mapbuilder: value item %q: FLOAT requires exactly two registers", *it.Name)
	}

	return b, nil
}

func asInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func asUint16(raw json.RawMessage) (uint16, bool) {
	n, ok := asInt(raw)
	if !ok || n < 0 || n > 0xFFFF {
		return 0, false
	}
	return uint16(n), true
}

func asUint16Slice(raw json.RawMessage) ([]uint16, bool) {
	var nums []json.Number
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, false
	}
	out := make([]uint16, 0, len(nums))
	for _, n := range nums {
		v, err := n.Int64()
		if err != nil || v < 0 || v > 0xFFFF {
			return nil, false
		}
		out = append(out, uint16(v))
	}
	return out, true
}

func asFloat(raw json.RawMessage) (float64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

func asString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
