package graph

import (
	"reflect"
	"testing"
)

func TestDetectCycles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]string
		want  [][]string
	}{
		{
			name:  "acyclic",
			files: map[string][]string{"/a.js": {"/b.js"}, "/b.js": {"/c.js"}, "/c.js": nil},
			want:  nil,
		},
		{
			name:  "three node cycle starts at smallest path",
			files: map[string][]string{"/c.js": {"/a.js"}, "/a.js": {"/b.js"}, "/b.js": {"/c.js"}},
			want:  [][]string{{"/a.js", "/b.js", "/c.js"}},
		},
		{
			name:  "self require",
			files: map[string][]string{"/a.js": {"/a.js"}},
			want:  [][]string{{"/a.js"}},
		},
		{
			name: "two disjoint cycles",
			files: map[string][]string{
				"/x.js": {"/y.js"}, "/y.js": {"/x.js"},
				"/a.js": {"/b.js"}, "/b.js": {"/a.js"},
			},
			want: [][]string{{"/a.js", "/b.js"}, {"/x.js", "/y.js"}},
		},
		{
			name:  "edges to unknown modules are ignored",
			files: map[string][]string{"/a.js": {"/node_modules/a/index.js"}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			for p, reqs := range tt.files {
				g.AddFile(p, p[1:], reqs)
			}
			got := g.DetectCycles()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DetectCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindImportChain(t *testing.T) {
	g := New()
	g.AddFile("/main.js", "main.js", []string{"/b.js", "/a.js"})
	g.AddFile("/a.js", "a.js", []string{"/util.js"})
	g.AddFile("/b.js", "b.js", []string{"/util.js"})
	g.AddFile("/util.js", "util.ts", nil)

	chain, ok := g.FindImportChain("/main.js", "/util.js")
	if !ok {
		t.Fatal("expected a chain")
	}
	if want := []string{"/main.js", "/a.js", "/util.js"}; !reflect.DeepEqual(chain, want) {
		t.Errorf("chain = %v, want %v", chain, want)
	}

	if _, ok := g.FindImportChain("/util.js", "/main.js"); ok {
		t.Error("expected no chain against edge direction")
	}
	if chain, ok := g.FindImportChain("/a.js", "/a.js"); !ok || len(chain) != 1 {
		t.Errorf("self chain = %v, %v", chain, ok)
	}
	if _, ok := g.FindImportChain("/missing.js", "/a.js"); ok {
		t.Error("expected no chain from unknown module")
	}
}

func TestDependents(t *testing.T) {
	g := New()
	g.AddFile("/main.js", "main.js", []string{"/a.js"})
	g.AddFile("/a.js", "a.js", []string{"/util.js"})
	g.AddFile("/b.js", "b.js", []string{"/util.js"})
	g.AddFile("/util.js", "util.js", nil)

	if got, want := g.Dependents("/util.js"), []string{"/a.js", "/b.js", "/main.js"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents = %v, want %v", got, want)
	}
	if got, want := g.DirectDependents("/util.js"), []string{"/a.js", "/b.js"}; !reflect.DeepEqual(got, want) {
		t.Errorf("DirectDependents = %v, want %v", got, want)
	}
	if got := g.Dependents("/main.js"); len(got) != 0 {
		t.Errorf("expected no dependents of /main.js, got %v", got)
	}
}

func TestDependentsWithCycle(t *testing.T) {
	g := New()
	g.AddFile("/a.js", "a.js", []string{"/b.js"})
	g.AddFile("/b.js", "b.js", []string{"/a.js"})

	if got, want := g.Dependents("/a.js"), []string{"/b.js"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents = %v, want %v", got, want)
	}
}
