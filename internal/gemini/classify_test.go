package gemini

import "testing"

func TestExtractJSONBlock(t *testing.T) {
	cases := map[string]string{
		"prefix {\"items\":[]} suffix": "{\"items\":[]}",
		"{\"a\":{\"b\":1}}":            "{\"a\":{\"b\":1}}",
		"no json at all":              "no json at all",
	}
	for in, want := range cases {
		if got := extractJSONBlock(in); got != want {
			t.Errorf("extractJSONBlock(%q) = %q, want %q", in, got, want)
		}
	}
}
