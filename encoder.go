package capmonster

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Encoder serializes request bodies and decodes responses.
type Encoder interface {
	Encode(any) ([]byte, error)
	Decode([]byte, any) error
}

// JSONEncoder encodes with the standard library and decodes with sonic.
type JSONEncoder struct{}

func (*JSONEncoder) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (*JSONEncoder) Decode(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// encodeTask renders a task with its wire "type" (and "class" for classed tasks) spliced in.
func encodeTask(enc Encoder, t Task) (json.RawMessage, error) {
	raw, err := enc.Encode(t)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	typ, _ := json.Marshal(t.TaskType())
	fields["type"] = typ
	if ct, ok := t.(classedTask); ok {
		class, _ := json.Marshal(ct.taskClass())
		fields["class"] = class
	}
	return json.Marshal(fields)
}
