package command

import "github.com/vmihailenco/msgpack/v5"

// MsgpackCodec encodes commands as MessagePack.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Encode(cmd *Command) ([]byte, error) {
	return msgpack.Marshal(cmd)
}

func (c *MsgpackCodec) Decode(data []byte) (*Command, error) {
	var cmd Command
	if err := msgpack.Unmarshal(data, &cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (c *MsgpackCodec) Name() string { return CodecNameMsgpack }
