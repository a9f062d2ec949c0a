package ingester

import (
	"time"

	"github.com/airbend/airbend-ingest/internal/laqn"
	"github.com/airbend/airbend-ingest/internal/schema"
)

// MetadataTable holds one row per site per run.
var MetadataTable = schema.MustNewTable("raw_metadata",
	schema.Col("scrape_time", "TIMESTAMP"),
	schema.Col("site_code", "VARCHAR"),
	schema.Col("site_name", "VARCHAR"),
	schema.Col("site_type", "VARCHAR"),
	schema.Col("date_closed", "NULLABLE(TIMESTAMP)"),
	schema.Col("date_opened", "NULLABLE(TIMESTAMP)"),
	schema.Col("latitude", "NULLABLE(VARCHAR)"),
	schema.Col("longitude", "NULLABLE(VARCHAR)"),
	schema.Col("data_owner", "VARCHAR"),
	schema.Col("site_link", "VARCHAR"),
)

// ReadingsTable holds the raw readings exactly as reported upstream.
var ReadingsTable = schema.MustNewTable("raw_sensor_reading",
	schema.Col("scrape_time", "TIMESTAMP"),
	schema.Col("site_code", "VARCHAR"),
	schema.Col("measurement_date", "VARCHAR"),
	schema.Col("species_code", "NULLABLE(VARCHAR)"),
	schema.Col("value", "NULLABLE(VARCHAR)"),
)

// Tables lists every table written by a run, in creation order.
var Tables = []*schema.Table{MetadataTable, ReadingsTable}

// SiteMeta is a row of MetadataTable.
type SiteMeta struct {
	ScrapeTime time.Time
	SiteCode   string
	SiteName   string
	SiteType   string
	DateClosed *string
	DateOpened *string
	Latitude   *string
	Longitude  *string
	DataOwner  string
	SiteLink   string
}

func NewSiteMeta(site laqn.Site, scrapeTime time.Time) SiteMeta {
	return SiteMeta{
		ScrapeTime: scrapeTime,
		SiteCode:   site.SiteCode,
		SiteName:   site.SiteName,
		SiteType:   site.SiteType,
		DateClosed: site.DateClosed,
		DateOpened: site.DateOpened,
		Latitude:   site.Latitude,
		Longitude:  site.Longitude,
		DataOwner:  site.DataOwner,
		SiteLink:   site.SiteLink,
	}
}

func (m SiteMeta) Row() []schema.Value {
	return []schema.Value{
		schema.Timestamp(m.ScrapeTime),
		schema.String(m.SiteCode),
		schema.String(m.SiteName),
		schema.String(m.SiteType),
		schema.OptionalString(m.DateClosed),
		schema.OptionalString(m.DateOpened),
		schema.OptionalString(m.Latitude),
		schema.OptionalString(m.Longitude),
		schema.String(m.DataOwner),
		schema.String(m.SiteLink),
	}
}

// SensorReading is a row of ReadingsTable.
type SensorReading struct {
	ScrapeTime      time.Time
	SiteCode        string
	MeasurementDate string
	SpeciesCode     *string
	Value           *string
}

func NewSensorReading(siteCode string, reading laqn.Reading, scrapeTime time.Time) SensorReading {
	return SensorReading{
		ScrapeTime:      scrapeTime,
		SiteCode:        siteCode,
		MeasurementDate: reading.MeasurementDate,
		SpeciesCode:     reading.SpeciesCode,
		Value:           reading.Value,
	}
}

func (r SensorReading) Row() []schema.Value {
	return []schema.Value{
		schema.Timestamp(r.ScrapeTime),
		schema.String(r.SiteCode),
		schema.String(r.MeasurementDate),
		schema.OptionalString(r.SpeciesCode),
		schema.OptionalString(r.Value),
	}
}
