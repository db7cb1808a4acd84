package gateway

import "encoding/json"

// Empty represents a void request or response.
// The zero value is nil, which serializes to JSON null.
type Empty *struct{}

// response is the envelope for successful responses: {"result": ...}.
type response struct {
	Result any `json:"result"`
}

// errorResponse is the envelope for failures: {"error": {...}}.
type errorResponse struct {
	Error *Error `json:"error"`
}

func encodeResponse(w jsonWriter, result any) error {
	return json.NewEncoder(w).Encode(response{Result: result})
}

func encodeErrorResponse(w jsonWriter, err *Error) error {
	return json.NewEncoder(w).Encode(errorResponse{Error: err})
}

// jsonWriter is satisfied by http.ResponseWriter and allows testing.
type jsonWriter interface {
	Write([]byte) (int, error)
}
