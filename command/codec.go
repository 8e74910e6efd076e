package command

// Codec defines the serialization contract for commands sent over byte
// transports.
type Codec interface {
	// Encode serializes a command to bytes.
	Encode(cmd *Command) ([]byte, error)

	// Decode deserializes bytes into a command.
	Decode(data []byte) (*Command, error)

	// Name returns the codec identifier ("json" or "msgpack").
	Name() string
}

// Codec names accepted by GetCodec.
const (
	CodecNameJSON    = "json"
	CodecNameMsgpack = "msgpack"
)

// GetCodec returns a codec by name. Unknown names fall back to MessagePack.
func GetCodec(name string) Codec {
	switch name {
	case CodecNameJSON:
		return &JSONCodec{}
	default:
		return &MsgpackCodec{}
	}
}
