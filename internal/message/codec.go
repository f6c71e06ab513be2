package message

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wagiedev/brainbridge/internal/errors"
)

// Encode serializes a request as a single JSON object terminated by a newline.
func Encode(req *Request) ([]byte, error) {
	if req == nil {
		return nil, &errors.EncodeError{Kind: "", Err: fmt.Errorf("nil request")}
	}

	if req.Type == "" {
		return nil, &errors.EncodeError{Kind: "", Err: fmt.Errorf("missing request type")}
	}

	wire := *req
	if wire.Payload == nil {
		wire.Payload = map[string]string{}
	}

	data, err := json.Marshal(&wire)
	if err != nil {
		return nil, &errors.EncodeError{Kind: string(req.Type), Err: err}
	}

	return append(data, '\n'), nil
}

// EncodeRaw serializes a request whose payload arrives loosely typed.
//
// The payload must be a flat mapping of string keys to string values; any
// other value is rejected with an EncodeError before anything is written.
func EncodeRaw(kind Kind, id string, payload map[string]any) ([]byte, error) {
	flat, err := flattenPayload(payload)
	if err != nil {
		return nil, &errors.EncodeError{Kind: string(kind), Err: err}
	}

	return Encode(&Request{Type: kind, ID: id, Payload: flat})
}

// Decode parses one line from the backend.
//
// Decode never fails to produce a Response. When the line is not a JSON
// object with the expected field types, the returned Response has error
// status and its Message is the raw line, and the second return value
// describes the failure for logging.
func Decode(line string) (*Response, error) {
	trimmed := strings.TrimSpace(line)

	var (
		resp Response
		err  error
	)

	if !strings.HasPrefix(trimmed, "{") {
		err = fmt.Errorf("expected JSON object")
	} else if err = json.Unmarshal([]byte(trimmed), &resp); err == nil {
		return &resp, nil
	}

	raw := line

	return &Response{Status: StatusError, Message: &raw}, &errors.ResponseDecodeError{RawData: line, Err: err}
}

func flattenPayload(payload map[string]any) (map[string]string, error) {
	if len(payload) == 0 {
		return map[string]string{}, nil
	}

	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	flat := make(map[string]string, len(payload))

	for _, k := range keys {
		s, ok := payload[k].(string)
		if !ok {
			return nil, fmt.Errorf("payload value for %q is %T, not a string", k, payload[k])
		}

		flat[k] = s
	}

	return flat, nil
}
