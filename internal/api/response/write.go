package response

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/mcoot/bingopot/internal/api/apierr"
)

// JSON writes data with the given status. The body is encoded before any
// header goes out, so a value that cannot be encoded becomes a 500 instead
// of a truncated 2xx.
func JSON(w http.ResponseWriter, status int, data any) {
	var body bytes.Buffer
	if data != nil {
		if err := json.NewEncoder(&body).Encode(data); err != nil {
			apierr.WriteError(w, apierr.NewInternalError())
			return
		}
	}

	// Balances and game state change between requests
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}
