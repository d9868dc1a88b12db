package utils

import (
	"reflect"
	"testing"
)

func TestUniqueSlice(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, nil},
		{"already unique", []string{"a", "b"}, []string{"a", "b"}},
		{"duplicates keep first occurrence order", []string{"a", "b", "a", "c", "b"}, []string{"a", "b", "c"}},
		{"all same", []string{"x", "x", "x"}, []string{"x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UniqueSlice(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("UniqueSlice(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
