package laqn

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Site is a monitoring station as described by the site catalogue. Optional fields are nil when the upstream
// reports them as empty strings.
type Site struct {
	LocalAuthorityCode string  `json:"@LocalAuthorityCode"`
	LocalAuthorityName string  `json:"@LocalAuthorityName"`
	SiteCode           string  `json:"@SiteCode"`
	SiteName           string  `json:"@SiteName"`
	SiteType           string  `json:"@SiteType"`
	DateClosed         *string `json:"@DateClosed"`
	DateOpened         *string `json:"@DateOpened"`
	Latitude           *string `json:"@Latitude"`
	Longitude          *string `json:"@Longitude"`
	DataOwner          string  `json:"@DataOwner"`
	DataManager        string  `json:"@DataManager"`
	SiteLink           string  `json:"@SiteLink"`
}

func (s *Site) UnmarshalJSON(data []byte) error {
	type plain Site
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.DateClosed = nilIfEmpty(p.DateClosed)
	p.DateOpened = nilIfEmpty(p.DateOpened)
	p.Latitude = nilIfEmpty(p.Latitude)
	p.Longitude = nilIfEmpty(p.Longitude)
	*s = Site(p)
	return nil
}

// Reading is a single measurement. SpeciesCode and Value are nil when the upstream reports them as empty, which
// means no datum rather than zero.
type Reading struct {
	MeasurementDate string  `json:"@MeasurementDateGMT"`
	SpeciesCode     *string `json:"@SpeciesCode"`
	Value           *string `json:"@Value"`
}

func (r *Reading) UnmarshalJSON(data []byte) error {
	type plain Reading
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.SpeciesCode = nilIfEmpty(p.SpeciesCode)
	p.Value = nilIfEmpty(p.Value)
	*r = Reading(p)
	return nil
}

type siteCatalogue struct {
	Sites struct {
		Site oneOrMany[Site] `json:"Site"`
	} `json:"Sites"`
}

type siteReadings struct {
	AirQualityData struct {
		SiteCode string             `json:"@SiteCode"`
		Data     oneOrMany[Reading] `json:"Data"`
	} `json:"AirQualityData"`
}

// oneOrMany decodes either a JSON array or a single object. The upstream collapses single element lists into a
// bare object.
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*o = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	case len(data) > 0 && data[0] == '{':
		var one T
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*o = []T{one}
		return nil
	default:
		return errors.Errorf("expected an object or an array, got %.20q", data)
	}
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
