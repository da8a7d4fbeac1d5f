package controllers

import (
	"net/http"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/api/validators"
	"github.com/damilareakin/artmarket-backend/internal/podcasts"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func podcastActor(r *http.Request) (podcasts.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return podcasts.Actor{}, err
	}
	return podcasts.Actor{UserID: id.UserID, ProfileID: id.ProfileID, Role: id.Role}, nil
}

// CreatePodcast lists a podcast or video under the caller's profile.
func CreatePodcast(svc podcasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := podcastActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input podcasts.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		podcast, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, podcast)
	}
}

// UpdatePodcast applies partial changes to an owned podcast.
func UpdatePodcast(svc podcasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := podcastActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		podcastID, err := parseIDParam(r, "podcastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input podcasts.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		podcast, err := svc.Update(r.Context(), actor, podcastID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, podcast)
	}
}

// DeletePodcast removes an owned podcast.
func DeletePodcast(svc podcasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := podcastActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		podcastID, err := parseIDParam(r, "podcastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, podcastID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetPodcast returns a single podcast by id.
func GetPodcast(svc podcasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		podcastID, err := parseIDParam(r, "podcastId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		podcast, err := svc.Get(r.Context(), podcastID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, podcast)
	}
}

// ListPodcasts pages through podcasts, optionally narrowed by kind.
func ListPodcasts(svc podcasts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var kind *enums.PodcastKind
		if raw := r.URL.Query().Get("kind"); raw != "" {
			parsed, err := enums.ParsePodcastKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			kind = &parsed
		}
		list, err := svc.List(r.Context(), kind, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
