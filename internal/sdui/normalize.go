package sdui

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wrapperKey is the alternate key some payloads nest the real component under.
const wrapperKey = "ui_component"

// Normalize reconciles a loosely shaped UI payload into a canonical Component.
// It accepts decoded JSON objects, raw JSON, or components, and returns nil
// when the input is not UI shaped. Unknown types are passed through; the
// registry decides at render time whether there is anything to draw.
func Normalize(input interface{}) *Component {
	raw := toObject(input)
	if raw == nil {
		return nil
	}

	if wrapped, ok := raw[wrapperKey].(map[string]interface{}); ok {
		for k, v := range wrapped {
			raw[k] = v
		}
		delete(raw, wrapperKey)
	}

	typeName, ok := raw["type"].(string)
	if !ok || strings.TrimSpace(typeName) == "" {
		return nil
	}

	props, _ := raw["props"].(map[string]interface{})
	if props == nil {
		props = map[string]interface{}{}
	}
	required, _ := raw["required"].(bool)

	component := &Component{
		Type:     Type(typeName),
		Props:    props,
		Required: required,
	}

	if component.Type == TypePreferenceChips || component.Type == TypeCompanionSelector {
		normalizeOptions(component.Props)
	}

	return component
}

// normalizeOptions rewrites plain string options into option records.
func normalizeOptions(props map[string]interface{}) {
	options, ok := props["options"].([]interface{})
	if !ok {
		return
	}
	for i, opt := range options {
		label, isString := opt.(string)
		if !isString {
			continue
		}
		options[i] = map[string]interface{}{
			"id":       fmt.Sprintf("option_%d", i),
			"label":    label,
			"selected": false,
		}
	}
}

// toObject converts the accepted input shapes into a fresh JSON object so
// normalization never aliases the caller's data.
func toObject(input interface{}) map[string]interface{} {
	var data []byte
	switch v := input.(type) {
	case nil:
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		data = encoded
	}

	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil
	}
	return obj
}
