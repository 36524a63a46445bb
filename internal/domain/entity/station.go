package entity

import "time"

// Station is an INMET weather station, a row of weather.stations.
// The geography column is generated by the database and not mapped here.
type Station struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Code      string    `gorm:"column:code" json:"code"`
	Name      string    `gorm:"column:name" json:"name"`
	Kind      string    `gorm:"column:kind" json:"kind"`
	City      string    `gorm:"column:city" json:"city"`
	State     string    `gorm:"column:state" json:"state"`
	Latitude  float64   `gorm:"column:latitude" json:"latitude"`
	Longitude float64   `gorm:"column:longitude" json:"longitude"`
	Active    bool      `gorm:"column:active" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

// TableName specifies the table name for Station.
func (Station) TableName() string {
	return "weather.stations"
}
