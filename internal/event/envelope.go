package event

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is one logical {type, data} unit extracted from a transport frame.
type Envelope struct {
	Type string              `json:"type"`
	Data jsoniter.RawMessage `json:"data"`
}

// DecodeFrame splits one raw text frame into envelopes. The server may coalesce
// several newline-delimited messages into a single frame; each segment is parsed
// independently so one malformed segment never takes down its siblings.
func DecodeFrame(frame []byte) []Envelope {
	segments := strings.Split(string(frame), "\n")
	envelopes := make([]Envelope, 0, len(segments))

	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		var env Envelope
		if err := json.UnmarshalFromString(segment, &env); err != nil {
			log.Warn().Err(err).Str("segment", segment).Msg("dropping malformed envelope")
			continue
		}

		envelopes = append(envelopes, env)
	}

	return envelopes
}
