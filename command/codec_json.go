package command

import "encoding/json"

// JSONCodec encodes commands as JSON.
type JSONCodec struct{}

func (c *JSONCodec) Encode(cmd *Command) ([]byte, error) {
	return json.Marshal(cmd)
}

func (c *JSONCodec) Decode(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (c *JSONCodec) Name() string { return CodecNameJSON }
