package utils

import (
	"reflect"
	"testing"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sep   string
		want  []string
	}{
		{"simple split", "a,b,c", ",", []string{"a", "b", "c"}},
		{"with spaces", "book flight, pack ", ",", []string{"book flight", "pack"}},
		{"blank parts", "a,  ,b,", ",", []string{"a", "b"}},
		{"empty string", "", ",", []string{}},
		{"multi-char separator", "a::b", "::", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitAndTrim(tt.input, tt.sep); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAndTrim(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPluralAndCount(t *testing.T) {
	if got := Count(1, "task"); got != "1 task" {
		t.Errorf("Count(1) = %q", got)
	}
	if got := Count(0, "day"); got != "0 days" {
		t.Errorf("Count(0) = %q", got)
	}
	if got := Plural(3, "task"); got != "tasks" {
		t.Errorf("Plural(3) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a rather long task name", 10, "a rathe..."},
		{"📋📋📋📋📋📋", 5, "📋📋..."},
		{"tiny", 2, "tiny"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestJSONPointerToPath(t *testing.T) {
	tests := []struct {
		ptr  string
		want string
	}{
		{"", ""},
		{"#", ""},
		{"/tasks/0/text", "tasks[0].text"},
		{"#/settings/darkMode", "settings.darkMode"},
		{"/0/subtasks/2/id", "[0].subtasks[2].id"},
		{"/a~1b/c~0d", "a/b.c~d"},
	}
	for _, tt := range tests {
		if got := JSONPointerToPath(tt.ptr); got != tt.want {
			t.Errorf("JSONPointerToPath(%q) = %q, want %q", tt.ptr, got, tt.want)
		}
	}
}
