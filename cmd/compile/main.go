package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/evan-a-w/evanlang2/internal/pkg/common"
	"github.com/evan-a-w/evanlang2/internal/pkg/processors"
)

func main() {
	out := flag.String("o", "", "output file path (default: standard output)")
	trace := flag.Bool("trace", false, "print per-module progress to standard error")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Printf("evanlang2 compiler version %s\n", processors.Version)
		return
	}

	if len(flag.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "usage: compile [-o out.c] <file>.el2")
		os.Exit(2)
	}

	log := &common.LogWriter{}
	// buffered so that nothing reaches the sink on a failed compilation
	buf := &bytes.Buffer{}
	if err := processors.Compile(flag.Arg(0), nil, buf, log); err != nil {
		log.Err(err)
	}

	traceOut := io.Writer(io.Discard)
	if *trace {
		traceOut = os.Stderr
	}
	failed := log.HasErrors()
	log.Flush(traceOut, os.Stderr)
	if failed {
		os.Exit(1)
	}

	sink := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintln(os.Stderr, errors.Wrapf(err, "cannot open output `%s`", *out))
			os.Exit(1)
		}
		defer f.Close()
		sink = f
	}
	if _, err := sink.Write(buf.Bytes()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
