package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/store-locator/internal/domain"
)

func TestCheckStores_GeneratedFixturePasses(t *testing.T) {
	stores := generateStores(300, 7)
	require.Len(t, stores, 300)

	for _, p := range checkStores(stores) {
		assert.True(t, p.passed(), "%s: %v", p.name, p.errors)
	}
}

func TestGenerateStores_Deterministic(t *testing.T) {
	assert.Equal(t, generateStores(50, 1), generateStores(50, 1))
	assert.NotEqual(t, generateStores(50, 1), generateStores(50, 2))
}

func TestCheckStores_ReportsProblems(t *testing.T) {
	stores := []domain.Store{
		{ID: 1, Name: "Circle K Pasteur", Brand: "Circle K", Lat: 10.78, Lon: 106.70, OpenTime: "7am", CloseTime: "22:00"},
		{ID: 1, Name: "", Brand: "MINISTOP", Lat: 0, Lon: 0},
		{ID: 3, Name: "GS25 Vo Van Tan", Brand: "GS25", Lat: 95, Lon: 106.70},
	}

	phases := checkStores(stores)
	failed := map[string]int{}
	for _, p := range failedPhases(phases) {
		failed[p.name] = len(p.errors)
	}

	assert.Equal(t, map[string]int{
		"Identity":    2, // duplicate id, empty name
		"Coordinates": 2, // null island, latitude out of range
		"Hours":       1,
		"Brands":      1,
	}, failed)
}
