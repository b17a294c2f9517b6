package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/store-locator/internal/domain"
	"github.com/couchcryptid/store-locator/internal/locator"
)

const (
	messageOK       = "OK"
	messageNoResult = "NO_RESULT"

	defaultRadiusKm     = 1.0
	defaultAlternatives = 1
)

// envelope wraps every API response except nearest, which carries its own
// ok and message fields.
type envelope struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, envelope{OK: true, Message: message, Data: data})
}

// fail maps invalid input to 400, provider failures to 502, and anything
// else to 500.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
		msg = err.Error()
	}
	_ = c.Error(err)
	c.JSON(status, envelope{OK: false, Error: msg})
}

// floatParam reads the first present name as a float. ok is false when
// none is present; a present but malformed value is invalid input.
func floatParam(c *gin.Context, names ...string) (float64, bool, error) {
	for _, name := range names {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false, domain.InvalidInput("%s must be a number", name)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false, domain.InvalidInput("%s must be a finite number", name)
		}
		return v, true, nil
	}
	return 0, false, nil
}

func requiredFloat(c *gin.Context, names ...string) (float64, error) {
	v, ok, err := floatParam(c, names...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, domain.InvalidInput("%s is required", names[0])
	}
	return v, nil
}

// intParam reads an integer, falling back to def when missing or malformed.
func intParam(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return def
	}
	return n
}

func requiredPoint(c *gin.Context, latNames, lonNames []string) (domain.Point, error) {
	lat, err := requiredFloat(c, latNames...)
	if err != nil {
		return domain.Point{}, err
	}
	lon, err := requiredFloat(c, lonNames...)
	if err != nil {
		return domain.Point{}, err
	}
	return domain.Point{Lat: lat, Lon: lon}, nil
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "pong", "pong": true})
}

func (s *Server) handleGeocode(c *gin.Context) {
	res, err := s.locator.Geocode(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	msg := messageOK
	if !res.Matched() {
		msg = messageNoResult
	}
	respond(c, msg, res)
}

func (s *Server) handleReverse(c *gin.Context) {
	p, err := requiredPoint(c, []string{"lat"}, []string{"lon", "lng"})
	if err != nil {
		fail(c, err)
		return
	}
	res, err := s.locator.ReverseGeocode(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	msg := messageOK
	if !res.Matched() {
		msg = messageNoResult
	}
	respond(c, msg, res)
}

func (s *Server) handleSuggest(c *gin.Context) {
	res, err := s.locator.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		fail(c, err)
		return
	}
	msg := messageOK
	if len(res.Items) == 0 && len(res.Variants) == 0 {
		msg = "Type more"
	}
	respond(c, msg, res)
}

func (s *Server) handleRadius(c *gin.Context) {
	center, err := requiredPoint(c, []string{"lat"}, []string{"lon", "lng"})
	if err != nil {
		fail(c, err)
		return
	}
	radius, ok, err := floatParam(c, "radius_km")
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		radius = defaultRadiusKm
	}

	res, err := s.locator.RadiusSearch(c.Request.Context(), locator.RadiusQuery{
		Center:   center,
		RadiusKm: radius,
		Brand:    c.Query("brand"),
		District: c.Query("district"),
		Limit:    intParam(c, "limit", 0),
		Offset:   intParam(c, "offset", 0),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, messageOK, res)
}

func (s *Server) handleBounds(c *gin.Context) {
	var q locator.BoundsQuery
	for _, b := range []struct {
		name string
		dst  *float64
	}{
		{"south", &q.South}, {"west", &q.West}, {"north", &q.North}, {"east", &q.East},
	} {
		v, err := requiredFloat(c, b.name)
		if err != nil {
			fail(c, err)
			return
		}
		*b.dst = v
	}
	q.Brand = c.Query("brand")
	q.District = c.Query("district")
	q.Limit = intParam(c, "limit", 0)

	res, err := s.locator.BoundsSearch(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, messageOK, res)
}

func (s *Server) handleSearch(c *gin.Context) {
	res, err := s.locator.SearchStores(c.Request.Context(), locator.SearchQuery{
		Text:     c.Query("q"),
		Brand:    c.Query("brand"),
		District: c.Query("district"),
		Limit:    intParam(c, "limit", 0),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, messageOK, res)
}

func (s *Server) handleDistricts(c *gin.Context) {
	res, err := s.locator.Districts(c.Request.Context(), c.Query("brand"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, messageOK, res)
}

// nearestRequest is the POST body of /api/nearest.
type nearestRequest struct {
	StoreName string   `json:"store_name"`
	Brand     string   `json:"brand"`
	Address   string   `json:"address"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	MaxKm     float64  `json:"max_km"`
}

func (s *Server) handleNearest(c *gin.Context) {
	var req nearestRequest
	if c.Request.Method == http.MethodPost {
		// A malformed body is treated like an empty one.
		_ = c.ShouldBindJSON(&req)
	} else {
		req.StoreName = c.Query("store_name")
		req.Brand = c.Query("brand")
		req.Address = c.DefaultQuery("q", c.Query("address"))
		if v, ok, err := floatParam(c, "lat"); err == nil && ok {
			req.Lat = &v
		}
		if v, ok, err := floatParam(c, "lon", "lng"); err == nil && ok {
			req.Lon = &v
		}
		req.MaxKm, _, _ = floatParam(c, "max_km")
	}

	q := locator.NearestQuery{
		StoreName: req.StoreName,
		Brand:     req.Brand,
		Text:      req.Address,
		MaxKm:     req.MaxKm,
	}
	if req.Lat != nil && req.Lon != nil {
		q.Client = &domain.Point{Lat: *req.Lat, Lon: *req.Lon}
	}

	res, err := s.locator.NearestStore(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleRoute(c *gin.Context) {
	from, err := requiredPoint(c, []string{"from_lat"}, []string{"from_lon", "from_lng"})
	if err != nil {
		fail(c, err)
		return
	}
	to, err := requiredPoint(c, []string{"to_lat"}, []string{"to_lon", "to_lng"})
	if err != nil {
		fail(c, err)
		return
	}

	res, err := s.locator.Route(c.Request.Context(), locator.RouteQuery{
		From:         from,
		To:           to,
		Profile:      c.Query("profile"),
		Alternatives: intParam(c, "alternatives", defaultAlternatives),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, messageOK, res)
}
