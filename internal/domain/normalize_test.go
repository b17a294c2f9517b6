package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"empty", "   ", ""},
		{"collapses whitespace", "  12   Ly Tu   Trong ", "12 Ly Tu Trong"},
		{"line breaks become commas", "12 Ly Tu Trong\n\nBen Nghe\nQuan 1", "12 Ly Tu Trong, Ben Nghe, Quan 1"},
		{"district abbreviation", "236 Le Van Sy, Q3", "236 Le Van Sy, Quan 3"},
		{"district abbreviation with dot", "236 Le Van Sy, Q.3", "236 Le Van Sy, Quan 3"},
		{"ward abbreviation", "12 Tran Hung Dao, P12, Q5", "12 Tran Hung Dao, Phuong 12, Quan 5"},
		{"leading brand token", "Circle K 236 Le Van Sy", "236 Le Van Sy"},
		{"leading brand any case", "circlek 236 Le Van Sy", "236 Le Van Sy"},
		{"hyphenated brand", "GS-25 123 Nguyen Trai", "123 Nguyen Trai"},
		{"brand kept before comma", "Circle K, 236 Le Van Sy", "Circle K, 236 Le Van Sy"},
		{"brand not at start", "236 Le Van Sy Circle K", "236 Le Van Sy Circle K"},
		{"repeated commas", "12 Ly Tu Trong,, , Quan 1,", "12 Ly Tu Trong, Quan 1"},
		{"accents kept", "Tòa nhà Bitexco, 2 Hải Triều", "Tòa nhà Bitexco, 2 Hải Triều"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.raw))
		})
	}
}

func TestNormalize_FixedPoint(t *testing.T) {
	inputs := []string{
		"Circle K 236 Le Van Sy, Q3",
		"GS25\n12 Ly Tu Trong\nP.12",
		"Tòa nhà Bitexco, 2 Hải Triều, Q1",
		"Circle K, 236 Le Van Sy, Tan Binh",
		"10.7769, 106.7009",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestEnsureLocality(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"empty", "", ""},
		{"district without city", "236 Le Van Sy, Quan 3", "236 Le Van Sy, Quan 3, Thanh pho Ho Chi Minh, Viet Nam"},
		{"no district", "236 Le Van Sy, Tan Binh", "236 Le Van Sy, Tan Binh, Viet Nam"},
		{"city acronym", "12 Nguyen Hue, TP HCM", "12 Nguyen Hue, Thanh pho Ho Chi Minh, Viet Nam"},
		{"city acronym with dot", "12 Nguyen Hue, TP.HCM", "12 Nguyen Hue, Thanh pho Ho Chi Minh, Viet Nam"},
		{"old city name", "12 Nguyen Hue, Quan 1, Sai Gon", "12 Nguyen Hue, Quan 1, Thanh pho Ho Chi Minh, Viet Nam"},
		{"accented country", "12 Nguyen Hue, Quan 1, Hồ Chí Minh, Việt Nam", "12 Nguyen Hue, Quan 1, Hồ Chí Minh, Việt Nam"},
		{"country spelled together", "12 Nguyen Hue, Vietnam", "12 Nguyen Hue, Vietnam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EnsureLocality(tt.query))
		})
	}
}

func TestEnsureLocality_Idempotent(t *testing.T) {
	inputs := []string{
		"236 Le Van Sy, Quan 3",
		"12 Nguyen Hue, TP HCM",
		"Sai Gon",
		"Ben Thanh",
		"Quận 1",
		"Viet Nam",
	}
	for _, in := range inputs {
		once := EnsureLocality(in)
		assert.Equal(t, once, EnsureLocality(once), "input %q", in)
	}
}

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "Duong Le Van Sy", StripAccents("Đường Lê Văn Sỹ"))
	assert.Equal(t, "Quan Tan Binh, Viet Nam", StripAccents("Quận Tân Bình, Việt Nam"))
	assert.Equal(t, "plain ascii", StripAccents("plain ascii"))
	assert.Empty(t, StripAccents(""))
}
