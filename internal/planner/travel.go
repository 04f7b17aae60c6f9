package planner

import (
	"context"
	"log/slog"

	"github.com/kartquake/kartquake/internal/model"
)

// StoreResolver turns a plan's store stop into a geocoded location, creating
// the backing rows on first use. The locator package satisfies this.
type StoreResolver interface {
	ResolveOrCreate(ctx context.Context, brand, displayName, searchText string) (*model.StoreLocation, error)
}

// DriveTimer measures driving minutes. The maps client satisfies this; a nil
// result means the leg could not be measured.
type DriveTimer interface {
	DriveTimeFromText(ctx context.Context, origin string, lat, lng float64) (*float64, error)
	DriveTimeBetween(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (*float64, error)
}

// Augmenter replaces stub drive minutes with measured ones when the request
// carries an origin.
type Augmenter struct {
	resolver StoreResolver
	timer    DriveTimer
	logger   *slog.Logger
}

func NewAugmenter(resolver StoreResolver, timer DriveTimer) *Augmenter {
	return &Augmenter{resolver: resolver, timer: timer, logger: slog.Default()}
}

// Augment rewrites store distances and plan totals in place. Plans whose
// stores cannot all be geocoded keep their stub values; individual legs that
// fail to measure contribute zero to the route total.
func (a *Augmenter) Augment(ctx context.Context, plans []*model.CandidatePlan, origin, destination string) {
	if origin == "" && destination == "" {
		return
	}
	if destination == "" {
		destination = origin
	}

	for _, plan := range plans {
		a.augmentPlan(ctx, plan, origin, destination)
	}
}

func (a *Augmenter) augmentPlan(ctx context.Context, plan *model.CandidatePlan, origin, destination string) {
	locations := make([]*model.StoreLocation, len(plan.Stores))
	for i, stop := range plan.Stores {
		searchText := stop.Name
		if origin != "" {
			searchText = stop.Name + " near " + origin
		}
		loc, err := a.resolver.ResolveOrCreate(ctx, stop.Name, stop.Name, searchText)
		if err != nil || loc == nil || !loc.HasCoordinates() {
			a.logger.Warn("skipping travel augmentation, store not geocodable",
				"plan", plan.Key, "store", stop.Name)
			return
		}
		locations[i] = loc
	}

	if origin != "" {
		for i, loc := range locations {
			minutes, err := a.timer.DriveTimeFromText(ctx, origin, *loc.Latitude, *loc.Longitude)
			if err == nil && minutes != nil {
				plan.Stores[i].DistanceMinutes = round1(*minutes)
			}
		}
	}

	var total float64
	leg := func(minutes *float64, err error) {
		if err == nil && minutes != nil {
			total += *minutes
		}
	}

	first, last := locations[0], locations[len(locations)-1]
	if origin != "" {
		leg(a.timer.DriveTimeFromText(ctx, origin, *first.Latitude, *first.Longitude))
	}
	for i := 0; i+1 < len(locations); i++ {
		from, to := locations[i], locations[i+1]
		leg(a.timer.DriveTimeBetween(ctx, *from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude))
	}
	if destination != "" {
		leg(a.timer.DriveTimeFromText(ctx, destination, *last.Latitude, *last.Longitude))
	}

	if total > 0 {
		plan.TravelMinutes = round1(total)
	}
}
