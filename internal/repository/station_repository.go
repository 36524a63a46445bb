package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/climanegocios/platform/internal/domain/entity"
	"github.com/climanegocios/platform/pkg/platform/support/util/logger"
)

// StationSearchCachePrefix prefixes cached city search results. Writers clear
// StationSearchCachePrefix + ":*" after changing stations.
const StationSearchCachePrefix = "stations:search"

// StationRepository reads and writes weather stations.
type StationRepository interface {
	// Upsert inserts stations, updating the existing row when the code is taken.
	Upsert(ctx context.Context, stations []entity.Station) (int64, error)
	FindByCode(ctx context.Context, code string) (*entity.Station, error)
	// SearchByCity returns active stations whose city matches. An empty city lists all of them.
	SearchByCity(ctx context.Context, city string, limit int) ([]entity.Station, error)
}

type gormStationRepository struct {
	db *gorm.DB
}

// NewStationRepository creates a StationRepository on db.
func NewStationRepository(db *gorm.DB) StationRepository {
	return &gormStationRepository{db: db}
}

func (r *gormStationRepository) Upsert(ctx context.Context, stations []entity.Station) (int64, error) {
	if len(stations) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "city", "state", "latitude", "longitude", "active", "updated_at"}),
	}).Create(&stations)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert %d stations: %w", len(stations), res.Error)
	}
	logger.Debugf("Upserted %d stations (rows affected: %d).", len(stations), res.RowsAffected)
	return res.RowsAffected, nil
}

func (r *gormStationRepository) FindByCode(ctx context.Context, code string) (*entity.Station, error) {
	var s entity.Station
	err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).Take(&s).Error
	return notFound(&s, err, "station "+code)
}

func (r *gormStationRepository) SearchByCity(ctx context.Context, city string, limit int) ([]entity.Station, error) {
	var stations []entity.Station
	q := r.db.WithContext(ctx).Where("active = ?", true).Limit(clampLimit(limit))
	city = strings.TrimSpace(city)
	switch {
	case city == "":
		q = q.Order("code")
	case isPostgres(r.db):
		q = q.Where(`(city ILIKE ? ESCAPE '\' OR similarity(city, ?) > ?)`, containsPattern(city), city, similarityThreshold).
			Order(similarityOrder("city", city, "code"))
	default:
		q = q.Where(`LOWER(city) LIKE ? ESCAPE '\'`, containsPattern(strings.ToLower(city))).Order("code")
	}
	if err := q.Find(&stations).Error; err != nil {
		return nil, fmt.Errorf("failed to search stations by city %q: %w", city, err)
	}
	return stations, nil
}
