package processors

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/evan-a-w/evanlang2/internal/pkg/ast"
	"github.com/evan-a-w/evanlang2/internal/pkg/common"
)

const Version = "0.2"

// Compile loads the module at path, type checks everything it reaches
// and writes the C translation unit to out. sources, when non-nil,
// replaces the file system (used by tests and tooling). Nothing is
// written on error.
func Compile(path string, sources map[string]string, out io.Writer, log *common.LogWriter) (err error) {
	defer func() {
		if x := recover(); x != nil {
			if e, ok := x.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", x)
		}
	}()

	c := newCompiler(sources, log)
	root := c.processModule(path, nil, ast.Location{})
	c.root = root

	files := maps.Keys(c.modules)
	slices.Sort(files)
	c.log.Trace("type checked %d module(s): %s", len(files), strings.Join(files, ", "))

	return Emit(c, root, out)
}
