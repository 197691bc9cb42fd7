package processors_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/evan-a-w/evanlang2/internal/pkg/common"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func compile(t *testing.T, sources map[string]string) string {
	t.Helper()
	out := &strings.Builder{}
	err := processors.Compile("main.el2", sources, out, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return out.String()
}

func compileErr(t *testing.T, sources map[string]string) error {
	t.Helper()
	out := &strings.Builder{}
	err := processors.Compile("main.el2", sources, out, nil)
	if err == nil {
		t.Fatalf("compile succeeded:\n%s", out.String())
	}
	return err
}

func wantKind(t *testing.T, err error, kind common.ErrorKind) {
	t.Helper()
	var ce common.Error
	if !errors.As(err, &ce) {
		t.Fatalf("error %v (%T) carries no kind", err, err)
	}
	if ce.Kind != kind {
		t.Fatalf("error kind = %v, want %v (error: %v)", ce.Kind, kind, err)
	}
}

func TestCompileGeneralizesIdentity(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let id = fun x -> x
let main() : i64 = id(0)
`,
	})
	if !strings.Contains(out, "Main_id_inst_I64") {
		t.Errorf("no i64 specialization of id:\n%s", out)
	}
	if !strings.Contains(out, "int main(void)") {
		t.Errorf("no C entry point:\n%s", out)
	}
	if strings.Contains(out, "Main_id_inst_Unit") {
		t.Errorf("spurious specialization emitted:\n%s", out)
	}
}

func TestCompileSharedSpecializationEmittedOnce(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let id = fun x -> x
let main() : i64 = id(id(1)) + id(2)
`,
	})
	if got := strings.Count(out, "int64_t Main_id_inst_I64(int64_t l_x) {"); got != 1 {
		t.Errorf("i64 specialization defined %d times:\n%s", got, out)
	}
}

func TestCompileEnumMatch(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
type option(a) := | Some(a) | None
let main() : i64 = match Some(1) with | Some(x) -> x | None -> 0
`,
	})
	for _, want := range []string{
		"enum Main_option_I64_tag",
		"MAIN_OPTION_I64_SOME_TAG",
		".tag == MAIN_OPTION_I64_SOME_TAG",
		".data.Some",
		"assert(0);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCompileMutualRecursion(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let even(n) = if n = 0 then true else odd(n - 1)
let odd(n) = if n = 0 then false else even(n - 1)
let main() : i64 = if even(10) then 0 else 1
`,
	})
	if !strings.Contains(out, "Main_even") || !strings.Contains(out, "Main_odd") {
		t.Errorf("mutually recursive pair not emitted:\n%s", out)
	}
}

func TestCompileModuleCycle(t *testing.T) {
	err := compileErr(t, map[string]string{
		"main.el2": `open A`,
		"a.el2":    `open B`,
		"b.el2":    `open A`,
	})
	wantKind(t, err, common.KindModuleCycle)
}

func TestCompileCrossModuleUse(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
open Util
let main() : i64 = twice(20) + Util.zero
`,
		"util.el2": `
let zero = 0
let twice(n : i64) : i64 = n + n
`,
	})
	if !strings.Contains(out, "Util_twice") {
		t.Errorf("imported function not emitted:\n%s", out)
	}
	if !strings.Contains(out, "Util_zero") {
		t.Errorf("imported value not emitted:\n%s", out)
	}
}

func TestCompileWeakensNonFunctionBindings(t *testing.T) {
	err := compileErr(t, map[string]string{
		"main.el2": `
let id = fun x -> x
let same = id
let a = same(0)
let b = same(true)
let main() : i64 = a
`,
	})
	wantKind(t, err, common.KindUnification)
}

func TestCompileDuplicateGlobals(t *testing.T) {
	err := compileErr(t, map[string]string{
		"main.el2": `
let x = 1
let x = 2
let main() : i64 = x
`,
	})
	wantKind(t, err, common.KindDuplicate)
}

func TestCompileUnknownName(t *testing.T) {
	err := compileErr(t, map[string]string{
		"main.el2": `let main() : i64 = nope`,
	})
	wantKind(t, err, common.KindName)
}

func TestCompileUnificationFailure(t *testing.T) {
	err := compileErr(t, map[string]string{
		"main.el2": `let main() : i64 = if true then 1 else false`,
	})
	wantKind(t, err, common.KindUnification)
}

func TestCompileExterns(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
extern exit_now : i64 -> unit = "exit"
implicit_extern put : i64 -> i64 = "putchar"
let main() : i64 = put(65); exit_now(0); 0
`,
	})
	if !strings.Contains(out, "extern void exit(int64_t);") {
		t.Errorf("extern declaration missing:\n%s", out)
	}
	if strings.Contains(out, "extern int64_t putchar") {
		t.Errorf("implicit extern must not be declared:\n%s", out)
	}
	if !strings.Contains(out, "putchar(65)") {
		t.Errorf("implicit extern not used by external name:\n%s", out)
	}
}

func TestCompileGlobalValueInitializer(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let base = 40 + 2
let main() : i64 = base
`,
	})
	if !strings.Contains(out, "int64_t Main_base;") {
		t.Errorf("global value not declared:\n%s", out)
	}
	if !strings.Contains(out, "el2_init_globals") {
		t.Errorf("no global initializer:\n%s", out)
	}
}

func TestCompileTupleLet(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let main() : i64 =
    let (a, b) = (1, 2) in
    a + b
`,
	})
	if !strings.Contains(out, "struct Tup2_I64_I64") {
		t.Errorf("tuple struct missing:\n%s", out)
	}
	if !strings.Contains(out, "._0") {
		t.Errorf("tuple projection missing:\n%s", out)
	}
}

func TestCompileLoopAndBreak(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
let main() : i64 =
    let i = &0 in
    loop (
        i^ <- i^ + 1;
        if i^ = 10 then break i^ else ()
    )
`,
	})
	if !strings.Contains(out, "for (;;)") {
		t.Errorf("loop not lowered:\n%s", out)
	}
	if !strings.Contains(out, "break;") {
		t.Errorf("break not lowered:\n%s", out)
	}
}

func TestCompileStructs(t *testing.T) {
	out := compile(t, map[string]string{
		"main.el2": `
type point := { x : i64; y : i64 }
let main() : i64 =
    let p = point { y = 2; x = 1 } in
    p.x + p.y
`,
	})
	if !strings.Contains(out, "struct Main_point") {
		t.Errorf("struct type missing:\n%s", out)
	}
	if !strings.Contains(out, ".x = 1") || !strings.Contains(out, ".y = 2") {
		t.Errorf("designated initializer missing:\n%s", out)
	}
}

func TestCompileNoPartialOutputOnError(t *testing.T) {
	out := &strings.Builder{}
	err := processors.Compile("main.el2", map[string]string{
		"main.el2": `let main() : i64 = if true then 1 else false`,
	}, out, nil)
	if err == nil {
		t.Fatal("compile succeeded")
	}
	if out.Len() != 0 {
		t.Errorf("partial output written:\n%s", out.String())
	}
}
