package controllers

import (
	"net/http"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/internal/likes"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func likeActor(r *http.Request) (likes.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return likes.Actor{}, err
	}
	return likes.Actor{UserID: id.UserID, ProfileID: id.ProfileID}, nil
}

// LikeArtwork records a like. Liking twice is a no-op.
func LikeArtwork(svc likes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := likeActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Like(r.Context(), actor, artworkID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "liked"})
	}
}

// UnlikeArtwork removes a like. Unliking twice is a no-op.
func UnlikeArtwork(svc likes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := likeActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unlike(r.Context(), actor, artworkID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unliked"})
	}
}

// ListMyLikes returns the caller's liked artworks.
func ListMyLikes(svc likes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := likeActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.ListForProfile(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
