package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/damilareakin/artmarket-backend/api/responses"
	"github.com/damilareakin/artmarket-backend/api/validators"
	"github.com/damilareakin/artmarket-backend/internal/artworks"
	"github.com/damilareakin/artmarket-backend/pkg/enums"
	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
	"github.com/damilareakin/artmarket-backend/pkg/logger"
)

func artworkActor(r *http.Request) (artworks.Actor, error) {
	id, err := callerIdentity(r)
	if err != nil {
		return artworks.Actor{}, err
	}
	return artworks.Actor{UserID: id.UserID, ProfileID: id.ProfileID, Role: id.Role}, nil
}

// CreateArtwork lists a new artwork under the caller's profile.
func CreateArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := artworkActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input artworks.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artwork, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, artwork)
	}
}

// UpdateArtwork applies partial changes to an owned artwork.
func UpdateArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := artworkActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input artworks.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artwork, err := svc.Update(r.Context(), actor, artworkID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// AdjustArtworkStock moves available quantity up or down.
func AdjustArtworkStock(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := artworkActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input adjustStockRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artwork, err := svc.AdjustStock(r.Context(), actor, artworkID, input.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

// DeactivateArtwork hides an artwork from search and new orders.
func DeactivateArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := artworkActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Deactivate(r.Context(), actor, artworkID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// GetArtwork returns a single artwork by id.
func GetArtwork(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artworkID, err := parseIDParam(r, "artworkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artwork, err := svc.Get(r.Context(), artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

// SearchArtworks lists artworks filtered by the query string parameters.
func SearchArtworks(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseSearchFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.Search(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseSearchFilters(r *http.Request) (artworks.SearchFilters, error) {
	q := r.URL.Query()
	filters := artworks.SearchFilters{
		Query:       strings.TrimSpace(q.Get("q")),
		InStockOnly: q.Get("inStock") == "true",
	}

	if raw := q.Get("kind"); raw != "" {
		kind, err := enums.ParseArtworkKind(raw)
		if err != nil {
			return artworks.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind")
		}
		filters.Kind = &kind
	}
	if raw := strings.TrimSpace(q.Get("medium")); raw != "" {
		filters.Medium = &raw
	}
	if raw := q.Get("profileId"); raw != "" {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			return artworks.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid profileId")
		}
		filters.ProfileID = &profileID
	}
	if raw := q.Get("minPrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return artworks.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid minPrice")
		}
		filters.MinPrice = &price
	}
	if raw := q.Get("maxPrice"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return artworks.SearchFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid maxPrice")
		}
		filters.MaxPrice = &price
	}
	return filters, nil
}
