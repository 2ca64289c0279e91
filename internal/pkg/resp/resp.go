/*
Package resp provides helper functions for constructing and sending HTTP JSON responses.

Successful responses return the affected entity or list directly. Error responses use
a fixed envelope of the form {"error": "<message>"} with the HTTP status carried by
the CustomError.
*/
package resp

import (
	"encoding/json"
	"net/http"

	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/errs"
	"github.com/zechsoft/global-backfinal-sub000/internal/pkg/logx"
)

// ErrorBody is the envelope used for every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondJSON is a generic response function used to set the Content-Type and send the JSON payload.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	response, err := json.Marshal(payload)
	if err != nil {
		logx.Error(
			err,
			"Error encoding JSON response",
			"http_status", httpStatus,
		)

		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(httpStatus)
	w.Write(response)
}

// RespondData sends a successful HTTP response (HTTP 200 OK) with the entity or list as the body.
func RespondData(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, data)
}

// RespondCreated sends a successful HTTP response (HTTP 201 Created) with the created entity as the body.
func RespondCreated(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusCreated, data)
}

// RespondError sends an HTTP response containing the error envelope.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	RespondJSON(w, r, customErr.Status, ErrorBody{Error: customErr.Message})
}
