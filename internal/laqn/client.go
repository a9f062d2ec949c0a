// Package laqn fetches the monitoring site catalogue and per-site readings from the London Air Quality Network
// JSON API.
package laqn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/airbend/airbend-ingest/internal/common/airbenderrors"
)

const (
	// SitesURL returns every monitoring site in the London group.
	SitesURL = "https://api.erg.ic.ac.uk/AirQuality/Information/MonitoringSites/GroupName=London/Json"
	// ReadingsURL is a template taking the site code, start date and end date, in that order.
	ReadingsURL = "https://api.erg.ic.ac.uk/AirQuality/Data/Site/SiteCode=%s/StartDate=%s/EndDate=%s/Json"

	UserAgent = "airbend-ingest/1.0"

	// DateFormat is the layout of the start and end dates accepted by the readings endpoint.
	DateFormat = "2006-01-02"
)

// maxResponseBytes bounds how much of a response body is decoded.
const maxResponseBytes = 64 << 20

type Config struct {
	SitesURL    string
	ReadingsURL string
}

func DefaultConfig() Config {
	return Config{
		SitesURL:    SitesURL,
		ReadingsURL: ReadingsURL,
	}
}

// Client talks to the LAQN API through the supplied http.Client, which is expected to apply retries, timeouts and
// concurrency limits. A deadline on the caller's context also covers time spent queueing for a connection.
type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(httpClient *http.Client, config Config) *Client {
	defaults := DefaultConfig()
	if config.SitesURL == "" {
		config.SitesURL = defaults.SitesURL
	}
	if config.ReadingsURL == "" {
		config.ReadingsURL = defaults.ReadingsURL
	}
	return &Client{httpClient: httpClient, config: config}
}

// FetchSites returns the full site catalogue.
func (c *Client) FetchSites(ctx context.Context) ([]Site, error) {
	var catalogue siteCatalogue
	if err := c.getJSON(ctx, c.config.SitesURL, &catalogue); err != nil {
		return nil, errors.WithMessage(err, "fetching site catalogue")
	}
	return catalogue.Sites.Site, nil
}

// FetchReadings returns the readings for one site between start and end inclusive. Only the calendar date of start
// and end is used.
func (c *Client) FetchReadings(ctx context.Context, siteCode string, start, end time.Time) ([]Reading, error) {
	u := c.readingsURL(siteCode, start, end)
	var readings siteReadings
	if err := c.getJSON(ctx, u, &readings); err != nil {
		return nil, errors.WithMessagef(err, "fetching readings for site %s", siteCode)
	}
	return readings.AirQualityData.Data, nil
}

// readingsURL renders the readings endpoint for a site and date range.
func (c *Client) readingsURL(siteCode string, start, end time.Time) string {
	return fmt.Sprintf(c.config.ReadingsURL,
		url.PathEscape(siteCode),
		start.Format(DateFormat),
		end.Format(DateFormat))
}

func (c *Client) getJSON(ctx context.Context, u string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.WithStack(&airbenderrors.ErrUnexpectedStatus{
			Method:     req.Method,
			URL:        u,
			StatusCode: resp.StatusCode,
		})
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(into); err != nil {
		return errors.Wrapf(err, "decoding response from %s", u)
	}
	return nil
}
