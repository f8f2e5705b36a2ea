package routing

import "testing"

func TestFormatDistanceMeters(t *testing.T) {
	cases := []struct {
		meters float64
		want   string
	}{
		{5234, "5.23 km"},
		{1000, "1.00 km"},
		{0, "0.00 km"},
		{123456, "123.46 km"},
	}
	for _, tc := range cases {
		if got := FormatDistanceMeters(tc.meters); got != tc.want {
			t.Errorf("FormatDistanceMeters(%v) = %q, esperado %q", tc.meters, got, tc.want)
		}
	}
}

func TestFormatDurationSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{930, "16 min"},
		{600, "10 min"},
		{89, "1 min"},
		{91, "2 min"},
		{0, "0 min"},
	}
	for _, tc := range cases {
		if got := FormatDurationSeconds(tc.seconds); got != tc.want {
			t.Errorf("FormatDurationSeconds(%v) = %q, esperado %q", tc.seconds, got, tc.want)
		}
	}
}
