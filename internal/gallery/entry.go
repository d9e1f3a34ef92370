package gallery

import (
	"encoding/json"
	"time"
)

// CreatedLayout matches the ISO-8601 local timestamps written into
// metadata.json by earlier versions of the studio.
const CreatedLayout = "2006-01-02T15:04:05.000000"

const (
	TypeGeneration = "generation"
	TypeGenerated  = "generated"
	UnknownPrompt  = "Unknown"
)

// Entry is one record of the gallery document. Keys other than the four core
// fields are kept in Extra and written back unchanged.
type Entry struct {
	Filename string
	Prompt   string
	Type     string
	Created  string
	Extra    map[string]any
}

// FormatCreated renders t the way the gallery document stores timestamps.
func FormatCreated(t time.Time) string {
	return t.Format(CreatedLayout)
}

var coreKeys = [...]string{"filename", "prompt", "type", "created"}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+len(coreKeys))
	for k, v := range e.Extra {
		out[k] = v
	}
	for i, v := range [...]string{e.Filename, e.Prompt, e.Type, e.Created} {
		if _, kept := out[coreKeys[i]]; kept && v == "" {
			continue
		}
		out[coreKeys[i]] = v
	}
	return json.Marshal(out)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry{}
	targets := [...]*string{&e.Filename, &e.Prompt, &e.Type, &e.Created}
	for i, key := range coreKeys {
		if s, ok := raw[key].(string); ok {
			*targets[i] = s
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		e.Extra = raw
	}
	return nil
}

