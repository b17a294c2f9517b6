// Package osrm proxies route requests to an OSRM routing server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-locator/internal/adapter/upstream"
	"github.com/couchcryptid/store-locator/internal/domain"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

const providerName = "osrm"

// Client fetches routes from OSRM's route service.
type Client struct {
	up      *upstream.Client
	baseURL string
}

// NewClient creates an OSRM client.
func NewClient(up *upstream.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{up: up, baseURL: strings.TrimRight(baseURL, "/")}
}

// Route requests full GeoJSON geometries with turn-by-turn steps between two
// points. alternatives > 0 asks OSRM for up to that many alternative routes.
// A 200 response whose code is not "Ok" is an UpstreamProtocol error.
func (c *Client) Route(ctx context.Context, profile domain.RouteProfile, from, to domain.Point, alternatives int) (domain.RouteResult, error) {
	// OSRM coordinates are lon,lat.
	coords := fmt.Sprintf("%s,%s;%s,%s",
		formatCoord(from.Lon), formatCoord(from.Lat),
		formatCoord(to.Lon), formatCoord(to.Lat))
	endpoint := fmt.Sprintf("%s/route/v1/%s/%s", c.baseURL, profile, coords)

	alt := "false"
	if alternatives > 0 {
		alt = strconv.Itoa(alternatives)
	}
	params := url.Values{
		"overview":     {"full"},
		"geometries":   {"geojson"},
		"steps":        {"true"},
		"alternatives": {alt},
	}

	body, err := c.up.Get(ctx, providerName, "route", endpoint, params, coords)
	if err != nil {
		return domain.RouteResult{}, err
	}

	var resp routeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.RouteResult{}, &domain.UpstreamError{
			Provider: providerName,
			Kind:     domain.UpstreamProtocol,
			Message:  fmt.Sprintf("decode response: %v", err),
			Query:    coords,
		}
	}
	if resp.Code != "Ok" {
		return domain.RouteResult{}, &domain.UpstreamError{
			Provider: providerName,
			Kind:     domain.UpstreamProtocol,
			Message:  strings.TrimSpace(resp.Code + " " + resp.Message),
			Query:    coords,
		}
	}

	routes := resp.Routes
	if routes == nil {
		routes = []json.RawMessage{}
	}
	return domain.RouteResult{Profile: profile, From: from, To: to, Routes: routes}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type routeResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Routes  []json.RawMessage `json:"routes"`
}
