package controllers

import (
	"net/http"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/api/validators"
	"github.com/damilareakin/artmarket-backend/internal/adverts"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func advertActor(r *http.Request) (adverts.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return adverts.Actor{}, err
	}
	return adverts.Actor{UserID: id.UserID, Role: id.Role}, nil
}

// CreateAdvert places a new advert.
func CreateAdvert(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := advertActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input adverts.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		advert, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, advert)
	}
}

// DeactivateAdvert pulls an advert from rotation.
func DeactivateAdvert(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := advertActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		advertID, err := parseIDParam(r, "advertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), actor, advertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// DeleteAdvert removes an advert entirely.
func DeleteAdvert(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := advertActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		advertID, err := parseIDParam(r, "advertId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, advertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListActiveAdverts returns adverts currently in rotation.
func ListActiveAdverts(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// ListAllAdverts returns every advert, active or not.
func ListAllAdverts(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := advertActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListAll(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
