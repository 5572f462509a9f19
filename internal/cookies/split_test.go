package cookies

import (
	"reflect"
	"testing"
)

func TestSplitSetCookie(t *testing.T) {
	tests := []struct {
		name     string
		combined string
		want     []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", " NID=511=abc; Path=/ ", []string{"NID=511=abc; Path=/"}},
		{
			"two cookies",
			"a=1; Path=/, b=2; Secure",
			[]string{"a=1; Path=/", "b=2; Secure"},
		},
		{
			"comma inside expires date",
			"AEC=xyz; Expires=Wed, 09-Jun-2025 10:18:14 GMT; Path=/",
			[]string{"AEC=xyz; Expires=Wed, 09-Jun-2025 10:18:14 GMT; Path=/"},
		},
		{
			"expires followed by next cookie",
			"AEC=xyz; expires=Wed, 09-Jun-2025 10:18:14 GMT, NID=511; expires=Thu, 10-Dec-2025 10:18:14 GMT; HttpOnly",
			[]string{
				"AEC=xyz; expires=Wed, 09-Jun-2025 10:18:14 GMT",
				"NID=511; expires=Thu, 10-Dec-2025 10:18:14 GMT; HttpOnly",
			},
		},
		{
			"expires as last attribute",
			"a=1; Expires=Wed, 09-Jun-2025 10:18:14 GMT, b=2",
			[]string{"a=1; Expires=Wed, 09-Jun-2025 10:18:14 GMT", "b=2"},
		},
		{
			"comma in value without equals",
			"a=x,y; Path=/",
			[]string{"a=x,y; Path=/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSetCookie(tt.combined)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSetCookie(%q):\n got  %q\n want %q", tt.combined, got, tt.want)
			}
		})
	}
}

func TestSplitSetCookie_ExpiresCommaNeverSplits(t *testing.T) {
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for _, day := range days {
		combined := "SOCS=CAI; Expires=" + day + ", 01-Jan-2030 00:00:00 GMT; Secure"
		got := SplitSetCookie(combined)
		if len(got) != 1 {
			t.Errorf("%s: got %d pieces %q, want 1", day, len(got), got)
		}
	}
}
