// Package logger provides adapters for popular logger libraries to work with
// the snapshot store's Logger interface.
//
// The adapters let you plug in your existing logger without writing
// boilerplate. Note that the standard library's slog.Logger already
// implements anticheat.Logger directly.
//
// Example with zap:
//
//	import (
//	    anticheat "github.com/maxgamesNL/MaxAntiCheat"
//	    "github.com/maxgamesNL/MaxAntiCheat/logger"
//	    "go.uber.org/zap"
//	)
//
//	func main() {
//	    zapLogger, _ := zap.NewProduction()
//
//	    store, err := anticheat.New([]uint64{1},
//	        anticheat.WithLogger(logger.NewZap(zapLogger)),
//	    )
//	    if err != nil {
//	        panic(err)
//	    }
//	    _ = store
//	}
package logger
