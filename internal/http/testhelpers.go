package httpx

import (
	"io"
	"log/slog"
)

// testLogger returns a logger that discards output. Kept outside _test files
// so every test file in the package can share it.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
