// Package locator lazily materializes store and location rows and geocodes
// them on first use.
package locator

import (
	"context"
	"fmt"

	"github.com/kartquake/kartquake/internal/maps"
	"github.com/kartquake/kartquake/internal/model"
	"github.com/kartquake/kartquake/internal/store"
)

// Geocoder finds coordinates for a free-form query. The maps client
// satisfies this.
type Geocoder interface {
	FindPlace(ctx context.Context, query string) (*maps.Place, error)
}

type Resolver struct {
	locations *store.LocationStore
	geo       Geocoder
}

func NewResolver(locations *store.LocationStore, geo Geocoder) *Resolver {
	return &Resolver{locations: locations, geo: geo}
}

// ResolveOrCreate returns the location for a store brand and display name,
// creating the backing rows when missing. A location that already has
// coordinates is returned as is; otherwise one geocoding attempt runs, and
// the location comes back ungeocode when the lookup finds nothing.
func (r *Resolver) ResolveOrCreate(ctx context.Context, brand, displayName, searchText string) (*model.StoreLocation, error) {
	st, err := r.locations.GetStoreByName(brand)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st, err = r.locations.CreateStore(brand, "")
		if err != nil {
			return nil, err
		}
	}

	loc, err := r.locations.GetLocation(st.ID, displayName)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc, err = r.locations.CreateLocation(st.ID, displayName)
		if err != nil {
			return nil, err
		}
	}
	if loc.HasCoordinates() {
		return loc, nil
	}

	if r.geo == nil {
		return loc, nil
	}
	place, err := r.geo.FindPlace(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", searchText, err)
	}
	if place == nil {
		return loc, nil
	}
	return r.locations.SetCoordinates(loc.ID, place.FormattedAddress, place.Lat, place.Lng)
}
