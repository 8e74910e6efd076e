package command

import "testing"

func TestGetCodec(t *testing.T) {
	t.Parallel()

	if got := GetCodec(CodecNameJSON).Name(); got != CodecNameJSON {
		t.Errorf("GetCodec(json) = %q", got)
	}
	if got := GetCodec(CodecNameMsgpack).Name(); got != CodecNameMsgpack {
		t.Errorf("GetCodec(msgpack) = %q", got)
	}
	if got := GetCodec("").Name(); got != CodecNameMsgpack {
		t.Errorf("GetCodec(\"\") = %q, want msgpack default", got)
	}
}

func TestCodecs_PreservePayloads(t *testing.T) {
	t.Parallel()

	for _, codec := range []Codec{&JSONCodec{}, &MsgpackCodec{}} {
		t.Run(codec.Name(), func(t *testing.T) {
			in := NewStatusReply("msg_abc", "Worker 3", 2)

			data, err := codec.Encode(in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out, err := codec.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if out.Kind != KindStatusReply || out.CorrelID != "msg_abc" {
				t.Errorf("decoded %+v", out)
			}
			if out.Status == nil || out.Status.Name != "Worker 3" || out.Status.Remaining != 2 {
				t.Errorf("decoded status %+v", out.Status)
			}
			if out.Run != nil {
				t.Errorf("expected no run payload, got %+v", out.Run)
			}
			if err := out.Validate(); err != nil {
				t.Errorf("decoded command invalid: %v", err)
			}
		})
	}
}

func TestCodecs_DecodeGarbage(t *testing.T) {
	t.Parallel()

	for _, codec := range []Codec{&JSONCodec{}, &MsgpackCodec{}} {
		if _, err := codec.Decode([]byte{0xc1, 0x00, 0xff}); err == nil {
			t.Errorf("%s: expected decode error", codec.Name())
		}
	}
}
