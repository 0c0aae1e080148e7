package gateway

import (
	"encoding/json"
	"net/http"

	commonerrors "henry-gateway/internal/common/errors"
	"henry-gateway/internal/common/validation"
)

// JSON writes a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Error writes the standard error envelope.
func Error(w http.ResponseWriter, status int, code commonerrors.ErrorCode, message string) {
	JSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(code),
			"message": message,
		},
	})
}

// ErrorFrom maps an application error onto an HTTP status and envelope.
func ErrorFrom(w http.ResponseWriter, err error) {
	code := commonerrors.CodeOf(err)
	status := http.StatusInternalServerError

	switch code {
	case commonerrors.ErrCodeInvalidRequest:
		status = http.StatusBadRequest
	case commonerrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case commonerrors.ErrCodeRequestInFlight:
		status = http.StatusConflict
	case commonerrors.ErrCodeInvalidTransition,
		commonerrors.ErrCodeNoPendingFeedback,
		commonerrors.ErrCodeWelcomeNotActive:
		status = http.StatusUnprocessableEntity
	case commonerrors.ErrCodeAdminAPIFailed,
		commonerrors.ErrCodeStrengthenFailed:
		status = http.StatusBadGateway
	}

	if code == "" {
		code = "INTERNAL"
	}
	Error(w, status, code, err.Error())
}

// ValidationFailure writes a 400 carrying the schema violations.
func ValidationFailure(w http.ResponseWriter, result *validation.ValidationResult) {
	JSON(w, http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(commonerrors.ErrCodeInvalidRequest),
			"message": "request body failed validation",
			"details": result.Errors,
		},
	})
}
