package trip

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatLngValid(t *testing.T) {
	valid := []LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 59.33, Lng: 18.07},
		{Lat: -90, Lng: -180},
		{Lat: 90, Lng: 180},
	}
	for _, l := range valid {
		assert.True(t, l.Valid(), "%+v should be valid", l)
	}

	invalid := []LatLng{
		{Lat: 90.01, Lng: 0},
		{Lat: -90.01, Lng: 0},
		{Lat: 0, Lng: 180.01},
		{Lat: 0, Lng: -180.01},
		{Lat: math.NaN(), Lng: 0},
		{Lat: 0, Lng: math.NaN()},
		{Lat: math.Inf(1), Lng: 0},
		{Lat: 0, Lng: math.Inf(-1)},
	}
	for _, l := range invalid {
		assert.False(t, l.Valid(), "%+v should be invalid", l)
	}
}

func TestTripAgeAndIsActive(t *testing.T) {
	now := time.Now()
	tr := &Trip{StartTime: now.Add(-90 * time.Minute), Status: StatusActive}

	assert.Equal(t, 90*time.Minute, tr.Age(now))
	assert.True(t, tr.IsActive())

	tr.Status = StatusCompleted
	assert.False(t, tr.IsActive())
}
