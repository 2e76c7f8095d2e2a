package conversation

import (
	"encoding/json"
	"strings"

	"github.com/tripmind/assistant/internal/api/sse"
	"github.com/tripmind/assistant/internal/sdui"
)

// ApologyPrefix starts the text of every failed reply.
const ApologyPrefix = "Sorry, I ran into a problem: "

// envelopeTextFields are the text fields of a JSON reply envelope, by priority.
var envelopeTextFields = []string{"text", "message", "user_preferences_introduction", "response"}

// reply is the final text and widgets of a finished turn.
type reply struct {
	Text       string
	UI         *sdui.Component
	Components []sdui.Component
}

// resolveDone works out the final reply from the streamed text and the done
// event. A backend may stream prose or a JSON envelope carrying text and ui,
// so the streamed text is first tried as an envelope and otherwise taken as
// plain text. Text comes from the first non-empty source of: the envelope,
// the event's ui payload, the event's response, the event's introduction,
// the streamed text. An envelope is never shown as text, so one without a
// text field leaves the reply empty unless the event carries one.
func resolveDone(streamed string, evt *sse.Event) reply {
	var out reply
	var text string
	var resolved bool

	env, isEnvelope := decodeEnvelope(streamed)
	if isEnvelope {
		out.UI = envelopeUI(env)
		text, resolved = firstText(env)
	}

	if evt != nil && len(evt.UI) > 0 {
		if payload := decodeUIPayload(evt.UI); payload != nil {
			if out.UI == nil {
				out.UI = sdui.Normalize(payload)
			}
			if !resolved {
				text, resolved = firstText(payload, "text", "message")
			}
		}
	}

	if !resolved && evt != nil {
		switch {
		case evt.Response != "":
			text, resolved = evt.Response, true
		case evt.UserPreferencesIntroduction != "":
			text, resolved = evt.UserPreferencesIntroduction, true
		}
	}

	if !resolved && !isEnvelope {
		text = streamed
	}
	out.Text = text

	if evt != nil {
		for _, raw := range evt.UIComponents {
			if c := sdui.Normalize(raw); c != nil {
				out.Components = append(out.Components, *c)
			}
		}
	}

	return out
}

// decodeEnvelope is the tagged attempt: only text that looks like a JSON
// object is tried, and a failed parse means plain text.
func decodeEnvelope(streamed string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(streamed)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var env map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, false
	}
	return env, true
}

// decodeUIPayload reads the event's ui object. Some backends send it JSON
// encoded as a string; that string is unquoted once.
func decodeUIPayload(raw json.RawMessage) map[string]interface{} {
	var payload map[string]interface{}
	if json.Unmarshal(raw, &payload) == nil {
		return payload
	}
	var encoded string
	if json.Unmarshal(raw, &encoded) != nil {
		return nil
	}
	payload, ok := decodeEnvelope(encoded)
	if !ok {
		return nil
	}
	return payload
}

func envelopeUI(env map[string]interface{}) *sdui.Component {
	if ui, ok := env["ui"]; ok && ui != nil {
		return sdui.Normalize(ui)
	}
	if ui, ok := env["ui_component"]; ok && ui != nil {
		return sdui.Normalize(ui)
	}
	return nil
}

func firstText(obj map[string]interface{}, fields ...string) (string, bool) {
	if len(fields) == 0 {
		fields = envelopeTextFields
	}
	for _, f := range fields {
		if s, ok := obj[f].(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// apology is the text of a reply that failed with message.
func apology(message string) string {
	if strings.TrimSpace(message) == "" {
		message = "something went wrong"
	}
	return ApologyPrefix + message
}
