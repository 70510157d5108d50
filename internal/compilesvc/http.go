package compilesvc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// parseJSON decodes a JSON request body into v. The body is restored
// afterward so middleware further down the chain can still read it.
func parseJSON(req *http.Request, v interface{}) error {
	if ct := req.Header.Get("Content-Type"); ct != "" && !strings.Contains(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewBuffer(data))

	if err := json.Unmarshal(data, v); err != nil {
		return newError("malformed JSON in request", err, ErrBodyUnmarshal)
	}
	return nil
}
