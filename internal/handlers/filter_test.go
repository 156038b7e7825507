package handlers

import (
	"net/url"
	"reflect"
	"testing"
	"time"

	"ecom-dashboard/internal/engine"
	"ecom-dashboard/internal/errors"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    engine.Filter
		wantErr bool
	}{
		{
			name:  "empty",
			query: "",
			want:  engine.Filter{},
		},
		{
			name:  "countries and range",
			query: "country=France&country=EIRE&start=2010-12-01&end=2011-12-09",
			want: engine.Filter{
				Countries: []string{"France", "EIRE"},
				Start:     time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC),
				End:       time.Date(2011, 12, 9, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "same day range",
			query: "start=2011-01-01&end=2011-01-01",
			want: engine.Filter{
				Start: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:  "open start",
			query: "end=2011-01-01",
			want:  engine.Filter{End: time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		{name: "datetime rejected", query: "start=2011-01-01T10:00:00", wantErr: true},
		{name: "reversed range", query: "start=2011-01-02&end=2011-01-01", wantErr: true},
		{name: "blank country", query: "country=France&country=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}

			got, err := ParseFilter(q)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if code := errors.As(err).Code; code != errors.CodeValidation {
					t.Errorf("code = %s, want %s", code, errors.CodeValidation)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
