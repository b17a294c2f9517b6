package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(provider ProviderName, lat, lon float64, display string) GeoCandidate {
	return GeoCandidate{Provider: provider, Position: &Point{Lat: lat, Lon: lon}, Display: display}
}

func TestScore(t *testing.T) {
	t.Run("accented display with house number", func(t *testing.T) {
		s := Score("236 Le Van Sy", "236 Đường Lê Văn Sỹ, Tân Bình")
		assert.InDelta(t, 1.15, s, 1e-9)
		assert.GreaterOrEqual(t, s, DefaultConfidenceThreshold)
	})

	t.Run("unrelated display", func(t *testing.T) {
		s := Score("236 Le Van Sy", "1 Nguyen Hue, Quan 1")
		assert.Less(t, s, DefaultConfidenceThreshold)
	})

	t.Run("stop words only", func(t *testing.T) {
		assert.Zero(t, Score("Quan 1, Viet Nam", "Quan 1, Thanh pho Ho Chi Minh, Viet Nam"))
	})

	t.Run("empty display", func(t *testing.T) {
		assert.Zero(t, Score("236 Le Van Sy", ""))
	})

	t.Run("partial overlap without numbers", func(t *testing.T) {
		assert.InDelta(t, 0.5, Score("Le Loi Ben Nghe", "Le Loi, Quan 1"), 1e-9)
	})

	t.Run("number mismatch gets no bonus", func(t *testing.T) {
		assert.InDelta(t, 0.75, Score("236 Le Van Sy", "12 Le Van Sy"), 1e-9)
	})
}

func TestRank(t *testing.T) {
	t.Run("drops missing coordinates", func(t *testing.T) {
		got := Rank("236 Le Van Sy", []GeoCandidate{
			{Provider: ProviderNominatim, Display: "236 Le Van Sy"},
			candidate(ProviderPhoton, 10.7934, 106.6789, "236 Le Van Sy"),
		})
		require.Len(t, got, 1)
		assert.Equal(t, ProviderPhoton, got[0].Provider)
	})

	t.Run("collapses duplicates", func(t *testing.T) {
		got := Rank("236 Le Van Sy", []GeoCandidate{
			candidate(ProviderNominatim, 10.79340001, 106.6789, "236 Le Van Sy, Tan Binh"),
			candidate(ProviderPhoton, 10.7934, 106.67890004, " 236 LE VAN SY, Tan Binh "),
			candidate(ProviderPhoton, 10.7934, 106.6789, "Le Van Sy"),
		})
		require.Len(t, got, 2)
		assert.Equal(t, ProviderNominatim, got[0].Provider)
		assert.Equal(t, "Le Van Sy", got[1].Display)
	})

	t.Run("sorts by score and keeps call order on ties", func(t *testing.T) {
		got := Rank("236 Le Van Sy", []GeoCandidate{
			candidate(ProviderNominatim, 10.1, 106.1, "Nguyen Hue"),
			candidate(ProviderNominatim, 10.2, 106.2, "Le Van Sy, Quan 3"),
			candidate(ProviderPhoton, 10.3, 106.3, "Le Van Sy, Phu Nhuan"),
			candidate(ProviderPhoton, 10.4, 106.4, "236 Le Van Sy"),
		})
		require.Len(t, got, 4)
		assert.Equal(t, "236 Le Van Sy", got[0].Display)
		assert.Equal(t, "Le Van Sy, Quan 3", got[1].Display)
		assert.Equal(t, "Le Van Sy, Phu Nhuan", got[2].Display)
		assert.Equal(t, "Nguyen Hue", got[3].Display)
		assert.Zero(t, got[3].Score)
	})
}

func TestBuildResolution(t *testing.T) {
	variants := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	t.Run("accepts best candidate", func(t *testing.T) {
		res := BuildResolution("236 Le Van Sy", variants, []GeoCandidate{
			candidate(ProviderNominatim, 10.1, 106.1, "1 Nguyen Hue, Quan 1"),
			candidate(ProviderPhoton, 10.7934, 106.6789, "236 Đường Lê Văn Sỹ, Tân Bình"),
		}, nil, DefaultConfidenceThreshold)

		require.True(t, res.Matched())
		assert.Equal(t, ProviderPhoton, res.Provider)
		assert.Equal(t, 10.7934, res.Location.Lat)
		assert.Equal(t, 106.6789, res.Location.Lon)
		assert.Equal(t, "236 Đường Lê Văn Sỹ, Tân Bình", res.Location.Display)
		assert.InDelta(t, 1.15, res.Score, 1e-9)
		assert.Equal(t, 2, res.CandidatesCount)
		assert.Len(t, res.Variants, 6)
		assert.Nil(t, res.Error)
	})

	t.Run("below threshold keeps diagnostics", func(t *testing.T) {
		lastErr := &UpstreamError{Provider: "nominatim", Kind: UpstreamUnavailable, Status: 503}
		res := BuildResolution("236 Le Van Sy Tan Binh", variants[:2], []GeoCandidate{
			candidate(ProviderNominatim, 10.1, 106.1, "Tan Dinh Market"),
		}, lastErr, DefaultConfidenceThreshold)

		assert.False(t, res.Matched())
		assert.Empty(t, res.Provider)
		assert.InDelta(t, 0.1667, res.Score, 1e-9)
		assert.Equal(t, 1, res.CandidatesCount)
		assert.Equal(t, []string{"a", "b"}, res.Variants)
		assert.Same(t, lastErr, res.Error)
	})

	t.Run("close miss surfaces score", func(t *testing.T) {
		res := BuildResolution("Le Loi Ben Thanh Market Nguyen Trai", nil, []GeoCandidate{
			candidate(ProviderNominatim, 10.1, 106.1, "Le Loi"),
		}, nil, 0.5)

		assert.False(t, res.Matched())
		assert.InDelta(t, 0.3333, res.Score, 1e-9)
	})

	t.Run("no candidates", func(t *testing.T) {
		res := BuildResolution("236 Le Van Sy", nil, nil, nil, DefaultConfidenceThreshold)
		assert.False(t, res.Matched())
		assert.Zero(t, res.CandidatesCount)
		assert.Empty(t, res.Variants)
	})
}
