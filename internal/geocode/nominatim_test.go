package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestShortenDisplayName(t *testing.T) {
	tests := []struct {
		name string
		full string
		want string
	}{
		{"full address", "Forbes Ave, Oakland, Pittsburgh, PA, USA", "Forbes Ave, Oakland"},
		{"two segments", "Forbes Ave, Oakland", "Forbes Ave, Oakland"},
		{"single segment", "Forbes Ave", "Forbes Ave"},
		{"single padded", "  Forbes Ave  ", "Forbes Ave"},
		{"empty", "", CurrentLocationFallback},
		{"whitespace only", "   ", CurrentLocationFallback},
		{"empty second segment", "Forbes Ave, ", "Forbes Ave"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortenDisplayName(tt.full); got != tt.want {
				t.Errorf("ShortenDisplayName(%q) = %q, want %q", tt.full, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		class, typ  string
		displayName string
		want        SourceCategory
	}{
		{"highway bus_stop", "highway", "bus_stop", "Forbes Ave at Bigelow", CategoryTransitStop},
		{"amenity bus_stop", "amenity", "bus_stop", "Fifth Ave Shelter", CategoryTransitStop},
		{"name says bus stop", "place", "locality", "Main St Bus Stop, Pittsburgh", CategoryTransitStop},
		{"stop in name with highway class", "highway", "residential", "Craig Stop Zone", CategoryTransitStop},
		{"stop in name without matching class", "place", "locality", "Stopville", CategoryOther},
		{"plain highway", "highway", "residential", "Forbes Ave", CategoryHighway},
		{"plain amenity", "amenity", "cafe", "Coffee Corner", CategoryAmenity},
		{"generic place", "place", "city", "Pittsburgh", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.class, tt.typ, tt.displayName); got != tt.want {
				t.Errorf("Classify(%q, %q, %q) = %q, want %q",
					tt.class, tt.typ, tt.displayName, got, tt.want)
			}
		})
	}
}

func TestOrderTransitFirst_StableGroups(t *testing.T) {
	results := []Result{
		{DisplayName: "A", Category: CategoryOther},
		{DisplayName: "B", Category: CategoryTransitStop},
		{DisplayName: "C", Category: CategoryHighway},
		{DisplayName: "D", Category: CategoryTransitStop},
		{DisplayName: "E", Category: CategoryAmenity},
	}

	ordered := OrderTransitFirst(results)
	var names []string
	for _, r := range ordered {
		names = append(names, r.DisplayName)
	}
	got := strings.Join(names, "")
	if got != "BDACE" {
		t.Errorf("order = %q, want BDACE (stops first, groups stable)", got)
	}
}

func TestForwardSearch_MergesAndOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(q, "bus stop") {
			w.Write([]byte(`[{"lat":"40.4445","lon":"-79.9532","display_name":"Forbes Ave at Craig St, Pittsburgh","class":"highway","type":"bus_stop"}]`))
			return
		}
		w.Write([]byte(`[{"lat":"40.4406","lon":"-79.9951","display_name":"Forbes Ave, Pittsburgh","class":"highway","type":"residential"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "SmartShuttle/1.0 test")
	results, err := c.ForwardSearch(context.Background(), "Forbes", "US")
	if err != nil {
		t.Fatalf("ForwardSearch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if !results[0].IsTransitStop() {
		t.Errorf("first result category = %q, want transit stop first", results[0].Category)
	}
	if results[1].Category != CategoryHighway {
		t.Errorf("second result category = %q, want highway", results[1].Category)
	}
}

func TestForwardSearch_FailsOpen(t *testing.T) {
	// Bus-stop-biased lookup fails; general lookup succeeds.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "bus stop") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"lat":"40.4406","lon":"-79.9951","display_name":"Forbes Ave, Pittsburgh","class":"highway","type":"residential"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "SmartShuttle/1.0 test")
	results, err := c.ForwardSearch(context.Background(), "Forbes", "US")
	if err != nil {
		t.Fatalf("ForwardSearch should fail open, got error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 from the surviving lookup", len(results))
	}
}

func TestForwardSearch_BothFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, "SmartShuttle/1.0 test")
	if _, err := c.ForwardSearch(context.Background(), "Forbes", "US"); err == nil {
		t.Error("expected error when both lookups fail")
	}
}

func TestForwardSearch_DropsInvalidCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"lat":"123.0","lon":"-79.9951","display_name":"Out of range","class":"place","type":"city"},
			{"lat":"not-a-number","lon":"-79.9951","display_name":"Unparsable","class":"place","type":"city"},
			{"lat":"40.4406","lon":"-79.9951","display_name":"Forbes Ave, Pittsburgh","class":"highway","type":"residential"}
		]`))
	}))
	defer srv.Close()

	c := New(srv.URL, "SmartShuttle/1.0 test")
	results, err := c.ForwardSearch(context.Background(), "Forbes", "US")
	if err != nil {
		t.Fatalf("ForwardSearch: %v", err)
	}
	// Both sub-requests hit the same handler, so the valid row appears once
	// after dedup.
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 valid result", len(results))
	}
	if results[0].DisplayName != "Forbes Ave, Pittsburgh" {
		t.Errorf("kept %q, want the valid result", results[0].DisplayName)
	}
}

func TestReverseLookup_ShortensAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":"Forbes Ave, Oakland, Pittsburgh, PA, USA"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "SmartShuttle/1.0 test")
	got := c.ReverseLookup(context.Background(), 40.4406, -79.9951)
	if got != "Forbes Ave, Oakland" {
		t.Errorf("ReverseLookup = %q, want %q", got, "Forbes Ave, Oakland")
	}
}

func TestReverseLookup_FallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{`))
		}},
		{"empty address", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"display_name":""}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := New(srv.URL, "SmartShuttle/1.0 test")
			got := c.ReverseLookup(context.Background(), 40.4406, -79.9951)
			if got != CurrentLocationFallback {
				t.Errorf("ReverseLookup = %q, want %q", got, CurrentLocationFallback)
			}
		})
	}
}
