package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSiteLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Site
	}{
		{"north_campus", SiteNorthCampus},
		{"Campus Norte", SiteNorthCampus},
		{"  madrid norte  ", SiteNorthCampus},
		{"CAMPUS SUR", SiteSouthCampus},
		{"In Company", SiteInCompany},
		{"en cliente", SiteInCompany},
		{"", SiteUnknown},
		{"Calle Mayor 5, Toledo", SiteUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSiteLabel(tt.label))
		})
	}
}

func TestEffectiveSite(t *testing.T) {
	room := &Room{ID: 7, Site: SiteSouthCampus}

	assert.Equal(t, SiteSouthCampus, EffectiveSite(room, "Campus Norte"),
		"an assigned room's site wins over the declared label")
	assert.Equal(t, SiteNorthCampus, EffectiveSite(nil, "Campus Norte"))
	assert.Equal(t, SiteUnknown, EffectiveSite(nil, "somewhere"))
}

func TestFilterExemptUnits(t *testing.T) {
	exempt := map[int64]bool{2: true}

	assert.Equal(t, []int64{1, 3}, FilterExemptUnits([]int64{1, 2, 3}, exempt))
	assert.Empty(t, FilterExemptUnits([]int64{2}, exempt))
}
