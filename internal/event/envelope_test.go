package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrameSingleEnvelope(t *testing.T) {
	envelopes := DecodeFrame([]byte(`{"type":"bet","data":{"user_id":1}}`))

	require.Len(t, envelopes, 1)
	assert.Equal(t, "bet", envelopes[0].Type)
}

func TestDecodeFrameBatchedEnvelopes(t *testing.T) {
	frame := "{\"type\":\"bet\",\"data\":{}}\n{\"type\":\"withdraw\",\"data\":{}}\n{\"type\":\"user_left\",\"data\":{}}"

	envelopes := DecodeFrame([]byte(frame))

	require.Len(t, envelopes, 3)
	assert.Equal(t, "bet", envelopes[0].Type)
	assert.Equal(t, "withdraw", envelopes[1].Type)
	assert.Equal(t, "user_left", envelopes[2].Type)
}

func TestDecodeFrameDropsMalformedSegmentOnly(t *testing.T) {
	frame := "{\"type\":\"bet\",\"data\":{}}\nnot-json\n{\"type\":\"withdraw\",\"data\":{}}"

	envelopes := DecodeFrame([]byte(frame))

	require.Len(t, envelopes, 2)
	assert.Equal(t, "bet", envelopes[0].Type)
	assert.Equal(t, "withdraw", envelopes[1].Type)
}

func TestDecodeFrameSkipsBlankSegments(t *testing.T) {
	frame := "\n\n  \n{\"type\":\"bet\",\"data\":{}}\n\n"

	envelopes := DecodeFrame([]byte(frame))

	require.Len(t, envelopes, 1)
}

func TestDecodeFrameEmptyFrame(t *testing.T) {
	assert.Empty(t, DecodeFrame([]byte("")))
	assert.Empty(t, DecodeFrame([]byte("\n\n")))
}
