package admin

import (
	"context"
	"fmt"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/internal/repository"
	"github.com/climanegocios/platform/pkg/platform/adapter/cache"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

const automaticStation = "Automática"

// ReferenceStations are the INMET stations every installation starts with.
func ReferenceStations() []entity.Station {
	return []entity.Station{
		{Code: "A801", Name: "PORTO ALEGRE", Kind: automaticStation, City: "Porto Alegre", State: "RS", Latitude: -30.05, Longitude: -51.17, Active: true},
		{Code: "A802", Name: "SANTA MARIA", Kind: automaticStation, City: "Santa Maria", State: "RS", Latitude: -29.72, Longitude: -53.72, Active: true},
		{Code: "A803", Name: "CAXIAS DO SUL", Kind: automaticStation, City: "Caxias do Sul", State: "RS", Latitude: -29.16, Longitude: -51.20, Active: true},
	}
}

// SeedStations upserts ReferenceStations and then drops cached city searches
// so the API stops serving results from before the seed. Running it again
// updates the rows in place. A nil searchCache skips the invalidation.
func SeedStations(ctx context.Context, stations repository.StationRepository, searchCache cache.Cache) (int, error) {
	ref := ReferenceStations()
	if _, err := stations.Upsert(ctx, ref); err != nil {
		return 0, err
	}
	logger.Infof("Seeded %d reference stations.", len(ref))

	if searchCache == nil {
		return len(ref), nil
	}
	removed, err := searchCache.DeletePattern(ctx, repository.StationSearchCachePrefix+":*")
	if err != nil {
		return len(ref), fmt.Errorf("stations seeded but cached searches were not cleared: %w", err)
	}
	logger.Debugf("Cleared %d cached station searches.", removed)
	return len(ref), nil
}
