package controllers

import (
	"net/http"
	"strings"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/api/validators"
	"github.com/damilareakin/artmarket-backend/internal/media"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func mediaActor(r *http.Request) (media.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return media.Actor{}, err
	}
	return media.Actor{UserID: id.UserID, ProfileID: id.ProfileID, Role: id.Role}, nil
}

// PresignMediaUpload issues a signed PUT URL for a direct upload.
func PresignMediaUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := mediaActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input media.PresignInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		output, err := svc.PresignUpload(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, output)
	}
}

// PresignMediaDownload resolves an object key to a fetchable URL.
func PresignMediaDownload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}
		output, err := svc.PresignDownload(r.Context(), key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, output)
	}
}

// DeleteMedia removes an object the caller owns.
func DeleteMedia(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := mediaActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		key := strings.TrimSpace(r.URL.Query().Get("key"))
		if key == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "key is required"))
			return
		}
		if err := svc.Delete(r.Context(), actor, key); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
