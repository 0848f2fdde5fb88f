package nlp

import (
	"reflect"
	"testing"
)

func TestSignificantWords(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{
			"stop words and short tokens removed",
			"The rocket was launched from the pad",
			[]string{"rocket", "launched"},
		},
		{
			"lowercased and deduplicated",
			"Rocket rocket ROCKET boosters",
			[]string{"rocket", "boosters"},
		},
		{
			"punctuation split",
			"SpaceX's launch, they said, succeeded!",
			[]string{"spacex's", "launch", "succeeded"},
		},
		{"empty", "", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SignificantWords(tc.in); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SignificantWords(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestKeywordSet(t *testing.T) {
	set := KeywordSet("Rocket launch succeeds, rocket lands")
	want := []string{"rocket", "launch", "succeeds", "lands"}
	if len(set) != len(want) {
		t.Fatalf("set = %v, want %d entries", set, len(want))
	}
	for _, w := range want {
		if !set[w] {
			t.Errorf("missing keyword %q in %v", w, set)
		}
	}
}

func TestCapitalizedNouns(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"SpaceX launches new rocket from Florida", []string{"SpaceX", "Florida"}},
		{"BREAKING: Tesla recalls vehicles", []string{"Tesla"}}, // "breaking" is a stop word
		{"all lowercase headline here", nil},
		{"Odd Dog Ate the Cake", []string{"Cake"}}, // short words skipped
	}
	for _, tc := range cases {
		if got := CapitalizedNouns(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("CapitalizedNouns(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCosine(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Cosine(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}
