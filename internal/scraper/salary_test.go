package scraper_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/vacancy-loader/internal/model"
	"jobmate/vacancy-loader/internal/scraper"
)

func f64(v float64) *float64 { return &v }

func TestNormalizeSalary(t *testing.T) {
	cases := []struct {
		name string
		in   *model.Salary
		want *int
	}{
		{"absent", nil, nil},
		{"no bounds", &model.Salary{}, nil},
		{"only from", &model.Salary{From: f64(500)}, intPtr(500)},
		{"only to", &model.Salary{To: f64(700)}, intPtr(700)},
		{"both", &model.Salary{From: f64(1000), To: f64(2000)}, intPtr(1500)},
		{"half rounds up", &model.Salary{From: f64(999), To: f64(1000)}, intPtr(1000)},
		{"zero from is kept", &model.Salary{From: f64(0)}, intPtr(0)},
		{"fractional bound", &model.Salary{To: f64(1234.6)}, intPtr(1235)},
		{"largest column value", &model.Salary{From: f64(math.MaxInt32)}, intPtr(math.MaxInt32)},
		{"overflowing bound", &model.Salary{From: f64(1e19)}, nil},
		{"negative bound", &model.Salary{To: f64(-1)}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, scraper.NormalizeSalary(c.in))
		})
	}
}

func intPtr(v int) *int { return &v }

// Malformed salary records must fall back to "absent" instead of failing
// the decode of the whole vacancies page.
func TestNormalizeSalary_MalformedRecords(t *testing.T) {
	cases := []struct {
		name string
		json string
		want *int
	}{
		{"null salary", `{"salary": null}`, nil},
		{"string salary", `{"salary": "negotiable"}`, nil},
		{"string bound", `{"salary": {"from": "lots", "to": 3000}}`, intPtr(3000)},
		{"negative bound", `{"salary": {"from": -10, "to": null}}`, nil},
		{"array salary", `{"salary": [1, 2]}`, nil},
		{"bound overflows int64", `{"salary": {"from": 1e19}}`, nil},
		{"bound exceeds salary column", `{"salary": {"from": 3000000000}}`, nil},
		{"huge bound dropped, other kept", `{"salary": {"from": 100, "to": 3000000000}}`, intPtr(100)},
		{"well formed", `{"salary": {"from": 500, "to": null, "currency": "RUR"}}`, intPtr(500)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var v model.RawVacancy
			require.NoError(t, json.Unmarshal([]byte(c.json), &v))
			assert.Equal(t, c.want, scraper.NormalizeSalary(v.Salary))
		})
	}
}
