package api

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const formatMsgpack = "msgpack"

// respondWithJSON пишет payload в JSON, или в MessagePack при ?format=msgpack.
func (s *Server) respondWithJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	var err error
	if r.URL.Query().Get("format") == formatMsgpack {
		w.Header().Set("Content-Type", "application/x-msgpack")
		w.WriteHeader(status)
		encoder := msgpack.NewEncoder(w)
		encoder.SetCustomStructTag("json")
		err = encoder.Encode(payload)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		err = json.NewEncoder(w).Encode(payload)
	}

	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondWithJSON(w, r, status, map[string]string{"error": message})
}
