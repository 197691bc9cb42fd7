package processors_test

import (
	"strings"
	"testing"

	"github.com/evan-a-w/evanlang2/internal/pkg/common"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func TestModuleNameFromFilename(t *testing.T) {
	cases := map[string]string{
		"main.el2":        "Main",
		"foo_bar.el2":     "Foo_bar",
		"dir/nested.el2":  "Nested",
		"x9.el2":          "X9",
		"list_utils.el2":  "List_utils",
		"a/b/c/deep.el2":  "Deep",
		"pkg/opt_map.el2": "Opt_map",
	}
	for file, want := range cases {
		if got := processors.ModuleNameFromFilename(file); string(got) != want {
			t.Errorf("ModuleNameFromFilename(%q) = %q, want %q", file, got, want)
		}
	}
}

func TestLoaderRejectsBadFileName(t *testing.T) {
	out := &strings.Builder{}
	err := processors.Compile("main.el2", map[string]string{
		"main.el2":     `open_file "Bad-Name.el2"`,
		"Bad-Name.el2": ``,
	}, out, nil)
	if err == nil {
		t.Fatal("bad module file name accepted")
	}
	wantKind(t, err, common.KindName)
}

func TestLoaderIsLazy(t *testing.T) {
	// unused.el2 is referenced by no one and must never be read; a module
	// is parsed only the first time it is named
	out := compile(t, map[string]string{
		"main.el2":   `let main() : i64 = 0`,
		"unused.el2": `this is not valid source`,
	})
	if !strings.Contains(out, "int main(void)") {
		t.Errorf("output missing entry point:\n%s", out)
	}
}

func TestLoaderDiamondImportLoadsOnce(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
open Left
open Right
let main() : i64 = from_left + from_right
`,
		"left.el2": `
open Shared
let from_left = shared_value
`,
		"right.el2": `
open Shared
let from_right = shared_value
`,
		"shared.el2": `let shared_value = 21`,
	})
	// one extern declaration plus one definition
	if got := strings.Count(out, "int64_t Shared_shared_value;"); got != 2 {
		t.Errorf("shared module value declared %d times:\n%s", got, out)
	}
}

func TestLoaderOpenShadowsMostRecentFirst(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
open First
open Second
let main() : i64 = answer
`,
		"first.el2":  `let answer = 1`,
		"second.el2": `let answer = 2`,
	})
	// Second was opened last, so its answer wins
	if !strings.Contains(out, "Second_answer") {
		t.Errorf("most recently opened module does not shadow:\n%s", out)
	}
	if strings.Contains(out, "First_answer") {
		t.Errorf("shadowed binding still referenced:\n%s", out)
	}
}
