package controllers

import (
	"net/http"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/api/validators"
	"github.com/damilareakin/artmarket-backend/internal/albums"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func albumActor(r *http.Request) (albums.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return albums.Actor{}, err
	}
	return albums.Actor{UserID: id.UserID, ProfileID: id.ProfileID, Role: id.Role}, nil
}

// CreateAlbum opens a new album under the caller's profile.
func CreateAlbum(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input albums.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		album, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, album)
	}
}

// UpdateAlbum applies partial changes to an owned album.
func UpdateAlbum(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		albumID, err := parseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input albums.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		album, err := svc.Update(r.Context(), actor, albumID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, album)
	}
}

// DeleteAlbum removes an album and its children.
func DeleteAlbum(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		albumID, err := parseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, albumID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetAlbum returns an album with its ordered children.
func GetAlbum(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		albumID, err := parseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		album, err := svc.Get(r.Context(), albumID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, album)
	}
}

// ListProfileAlbums pages through a profile's albums.
func ListProfileAlbums(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID, err := parseIDParam(r, "profileId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListByProfile(r.Context(), profileID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AddAlbumChild appends an entry to the end of an album.
func AddAlbumChild(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		albumID, err := parseIDParam(r, "albumId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input albums.ChildInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		child, err := svc.AddChild(r.Context(), actor, albumID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, child)
	}
}

// RemoveAlbumChild deletes an entry and closes the position gap.
func RemoveAlbumChild(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		childID, err := parseIDParam(r, "childId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveChild(r.Context(), actor, childID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

type reorderChildRequest struct {
	Position int `json:"position" validate:"min=0"`
}

// ReorderAlbumChild moves an entry to a new position within its album.
func ReorderAlbumChild(svc albums.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := albumActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		childID, err := parseIDParam(r, "childId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input reorderChildRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ReorderChild(r.Context(), actor, childID, input.Position); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "reordered"})
	}
}
