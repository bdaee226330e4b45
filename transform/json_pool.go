package transform

import (
	"bytes"
	"encoding/json"
	"sync"
)

// jsonBufferPool holds buffers for canonical re-serialization. Every replica
// re-encodes its own copy of the response, so buffers are reused across
// replicas and calls.
var jsonBufferPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 1024))
	},
}

func acquireJSONBuffer() *bytes.Buffer {
	return jsonBufferPool.Get().(*bytes.Buffer)
}

// releaseJSONBuffer returns buf to the pool unless it grew past 64KB.
func releaseJSONBuffer(buf *bytes.Buffer) {
	if buf.Cap() <= 65536 {
		buf.Reset()
		jsonBufferPool.Put(buf)
	}
}

// marshalCanonical encodes v with sorted object keys and without HTML
// escaping. Values decoded with UseNumber keep their original digits.
func marshalCanonical(v any) ([]byte, error) {
	buf := acquireJSONBuffer()
	defer releaseJSONBuffer(buf)

	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	// Encode appends a newline.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	return append([]byte(nil), result...), nil
}

// decodeJSON parses bz into generic values, keeping numbers as json.Number.
func decodeJSON(bz []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(bz))
	decoder.UseNumber()

	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
