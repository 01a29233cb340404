package utils

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseQuery(t *testing.T) {
	m, err := ParseQuery(`Service=WPS&REQUEST=Execute&identifier=s2%5Ffapar&note=a\&b&&flag`)
	if err != nil {
		t.Fatal(err)
	}
	want := url.Values{
		"service":    {"WPS"},
		"request":    {"Execute"},
		"identifier": {"s2_fapar"},
		"note":       {"a&b"},
		"flag":       {""},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}

	m, err = ParseQuery("a=%zz&b=1")
	if err == nil {
		t.Errorf("expecting an escape error")
	}
	if m.Get("b") != "1" {
		t.Errorf("valid parameters should still be decoded: %v", m)
	}

	if m, _ := ParseQuery(""); len(m) != 0 {
		t.Errorf("empty query should give no parameters: %v", m)
	}
}
