// Command corelogdemo is a minimal usage example, not a CLI (spec.md §1
// puts flag/config-file parsing out of scope). It mirrors the shape of
// the teacher's cmd/main.go — build, run, report errors to stderr — with
// the config-file/flag machinery removed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	corelog "ssw-corelog"
	"ssw-corelog/config"
	"ssw-corelog/level"
)

func main() {
	ctx := context.Background()

	if err := corelog.Init(ctx, config.Options{
		Program:  "corelogdemo",
		SinkPath: "-",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "corelogdemo: init: %v\n", err)
		os.Exit(1)
	}
	defer corelog.Finalize(ctx)

	app := corelog.NewLogger("corelogdemo.app", level.Info)

	if err := corelog.Log(app, level.Info, "main.go", 0, "main", "corelogdemo starting"); err != nil {
		fmt.Fprintf(os.Stderr, "corelogdemo: log: %v\n", err)
	}

	producer := corelog.AttachProducer()
	defer producer.Close()
	for i := 0; i < 3; i++ {
		producer.Log(app, level.Info, "main.go", 0, "main", "tick %d", i)
		time.Sleep(10 * time.Millisecond)
	}

	flushCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := corelog.Flush(flushCtx); err != nil {
		fmt.Fprintf(os.Stderr, "corelogdemo: flush: %v\n", err)
	}
}
