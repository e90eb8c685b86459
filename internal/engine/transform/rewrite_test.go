package transform

import "testing"

func TestNamer(t *testing.T) {
	n := newNamer([]byte("const _m = _m2 + $x; // _exportStar"))
	if got := n.fresh("_m"); got != "_m3" {
		t.Fatalf("fresh(_m) = %q, want _m3", got)
	}
	if got := n.fresh("_m"); got != "_m4" {
		t.Fatalf("second fresh(_m) = %q, want _m4", got)
	}
	if got := n.fresh("_exportStar"); got != "_exportStar2" {
		t.Fatalf("names in comments are treated as taken, got %q", got)
	}
	if got := n.fresh("_interopRequireDefault"); got != "_interopRequireDefault" {
		t.Fatalf("unused base should be kept, got %q", got)
	}
}

func TestUnescape(t *testing.T) {
	cases := map[string]string{
		`\n`:        "\n",
		`\'`:        "'",
		`\\`:        `\`,
		`\x2F`:      "/",
		`\u0041`:    "A",
		`\u{1F600}`: "\U0001F600",
		"\\\n":     "",
	}
	for in, want := range cases {
		if got := unescape(in); got != want {
			t.Errorf("unescape(%q) = %q, want %q", in, got, want)
		}
	}
}
