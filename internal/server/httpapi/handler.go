package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/server/devices"
	"github.com/onionkeep/onionkeep/internal/server/envelope"
	"github.com/onionkeep/onionkeep/internal/server/vault"
)

// registerRequest is the only payload accepted outside an envelope; no
// shared secret exists yet at pairing time.
type registerRequest struct {
	PublicKey []byte `json:"public_key"`
	Name      string `json:"name"`
}

type registerResponse struct {
	DeviceID         string `json:"device_id"`
	ServerPublicKey  []byte `json:"server_public_key"`
	VerificationCode string `json:"verification_code"`
}

// operationRequest is the decrypted inner payload selecting a vault or
// device operation.
type operationRequest struct {
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
	Name  string `json:"name,omitempty"`
}

type operationResponse struct {
	Error   string                 `json:"error,omitempty"`
	ID      string                 `json:"id,omitempty"`
	Value   string                 `json:"value,omitempty"`
	Records []vault.RecordInfo     `json:"records,omitempty"`
	Devices []devices.PublicDevice `json:"devices,omitempty"`
}

// Abstract outcome tags; raw error text never reaches a client.
const (
	tagInvalidInput = "invalid_input"
	tagAuthFailed   = "authentication_failed"
	tagNotFound     = "not_found"
	tagUnavailable  = "unavailable"
	tagInternal     = "internal"
)

func outcome(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, tagInvalidInput
	case errors.Is(err, common.ErrAuthenticationFailed):
		return http.StatusUnauthorized, tagAuthFailed
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, tagNotFound
	case errors.Is(err, common.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, tagUnavailable
	default:
		return http.StatusInternalServerError, tagInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, tag := outcome(err)
	writeJSON(w, status, map[string]string{"error": tag})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, common.ErrInvalidInput)
		return
	}

	reg, err := s.devices.Register(r.Context(), req.PublicKey, req.Name)
	if err != nil {
		s.log.Warn(r.Context(), "registration rejected")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		DeviceID:         reg.Device.ID,
		ServerPublicKey:  reg.ServerPublicKey,
		VerificationCode: reg.VerificationCode,
	})
}

// handleEnvelope opens the envelope, dispatches the inner operation and
// seals the result back to the same device. Failures to open are terminal
// and answered in the clear, since no key is available to seal with.
func (s *Server) handleEnvelope(w http.ResponseWriter, r *http.Request) {
	var env envelope.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeError(w, common.ErrInvalidInput)
		return
	}

	plaintext, err := s.codec.Open(r.Context(), &env)
	if err != nil {
		writeError(w, err)
		return
	}

	// Resolve the device once more so the response can be sealed even when
	// the operation removes the record (revocation).
	device, err := s.devices.Lookup(r.Context(), env.DeviceID)
	if err != nil {
		writeError(w, common.ErrAuthenticationFailed)
		return
	}

	var op operationRequest
	if err := json.Unmarshal(plaintext, &op); err != nil {
		s.respond(w, r, device, http.StatusBadRequest, operationResponse{Error: tagInvalidInput})
		return
	}

	status, resp := s.dispatch(r, device, &op)
	s.respond(w, r, device, status, resp)
}

func (s *Server) dispatch(r *http.Request, device *devices.Device, op *operationRequest) (int, operationResponse) {
	ctx := r.Context()
	deviceID := device.ID

	switch op.Op {
	case "create":
		id, err := s.vault.Create(ctx, deviceID, op.Label, []byte(op.Value))
		if err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{ID: id}

	case "list":
		records, err := s.vault.List(ctx, deviceID)
		if err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{Records: records}

	case "get":
		value, err := s.vault.Get(ctx, deviceID, op.ID)
		if err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{ID: op.ID, Value: string(value)}

	case "update":
		if err := s.vault.Update(ctx, deviceID, op.ID, []byte(op.Value)); err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{ID: op.ID}

	case "delete":
		if err := s.vault.Delete(ctx, deviceID, op.ID); err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{}

	case "devices":
		list, err := s.devices.List(ctx)
		if err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{Devices: list}

	case "rename":
		if err := s.devices.Rename(ctx, deviceID, op.Name); err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{}

	case "revoke":
		if err := s.devices.Revoke(ctx, deviceID); err != nil {
			return errorResponse(err)
		}
		return http.StatusOK, operationResponse{}

	default:
		return http.StatusBadRequest, operationResponse{Error: tagInvalidInput}
	}
}

func errorResponse(err error) (int, operationResponse) {
	status, tag := outcome(err)
	return status, operationResponse{Error: tag}
}

// respond seals the operation result back to the device. The transport
// status code carries the abstract outcome; the body is always an envelope.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, device *devices.Device, status int, resp operationResponse) {
	plaintext, err := json.Marshal(resp)
	if err != nil {
		writeError(w, common.ErrInternal)
		return
	}

	sealed, err := s.codec.SealFor(device, plaintext)
	if err != nil {
		s.log.Error(r.Context(), "failed to seal response", "device", device.ID)
		writeError(w, common.ErrInternal)
		return
	}
	writeJSON(w, status, sealed)
}
