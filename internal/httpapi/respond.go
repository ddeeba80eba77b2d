package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/principal"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// envelope is the response body of every endpoint.
type envelope map[string]any

func statusFor(err error) int {
	switch tutorAuth.Classify(err) {
	case tutorAuth.ClassValidation:
		return http.StatusBadRequest
	case tutorAuth.ClassAuthentication:
		return http.StatusUnauthorized
	case tutorAuth.ClassAuthorization:
		return http.StatusForbidden
	case tutorAuth.ClassConflict:
		return http.StatusConflict
	case tutorAuth.ClassUnsupported:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, message string, extra envelope) {
	body := envelope{"success": true, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, role principal.Role, err error) {
	if errors.Is(err, errBadBody) {
		writeJSON(w, http.StatusBadRequest, envelope{"success": false, "message": "Invalid request body"})
		return
	}
	writeJSON(w, statusFor(err), envelope{
		"success": false,
		"message": tutorAuth.PublicMessage(role, err),
	})
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

// principalView renders the public fields under the role's id key.
func principalView(p *tutorAuth.Principal) map[string]any {
	return map[string]any{
		"name":                                 p.FullName,
		"email":                                p.Email,
		principal.CapabilitiesOf(p.Role).IDKey: p.PublicID,
		"profileImage":                         p.ProfileImage,
	}
}

func authBody(res *tutorAuth.AuthResult) envelope {
	return envelope{
		"accessToken":             res.AccessToken,
		res.Principal.Role.Slug(): principalView(res.Principal),
	}
}
