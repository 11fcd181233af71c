package hostport

import (
	"io"
	"os"

	"github.com/joeycumines/stumpy"

	"github.com/wrtos/rtcore/kernel"
)

// NewLogger builds a stumpy-backed JSON logger suitable for
// kernel.WithLogger: one line per kernel diagnostic event, written to w
// (os.Stderr if w is nil).
func NewLogger(w io.Writer) *kernel.Logger {
	if w == nil {
		w = os.Stderr
	}
	return kernel.NewLogger(stumpy.L.New(stumpy.L.WithStumpy(stumpy.WithWriter(w))))
}
