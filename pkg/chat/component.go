// Package chat renders the small subset of Minecraft's JSON text
// component format lazymc needs for MOTDs, kick reasons and lobby
// messages. It intentionally does not attempt hover/click events,
// translation keys or nested extras beyond one level, since lazymc only
// ever emits text it generated itself.
package chat

import "encoding/json"

// Component is a single, flat chat component: plain text with optional
// formatting and child extras of the same shape.
type Component struct {
	Text          string      `json:"text"`
	Color         string      `json:"color,omitempty"`
	Bold          bool        `json:"bold,omitempty"`
	Italic        bool        `json:"italic,omitempty"`
	Strikethrough bool        `json:"strikethrough,omitempty"`
	Underlined    bool        `json:"underlined,omitempty"`
	Obfuscated    bool        `json:"obfuscated,omitempty"`
	Extra         []Component `json:"extra,omitempty"`
}

// Text builds a plain, unstyled component from a literal string,
// splitting legacy "&"-style colour codes is explicitly out of scope:
// lazymc's templates are either plain strings or already-built
// Components.
func Text(s string) Component {
	return Component{Text: s}
}

// MarshalJSON renders the component as the single-line JSON object the
// client expects embedded in status and disconnect payloads.
func (c Component) MarshalJSON() ([]byte, error) {
	type alias Component
	return json.Marshal(alias(c))
}

// String renders the component to its JSON string form, e.g. for
// embedding as the "description" field of a status response.
func String(c Component) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
