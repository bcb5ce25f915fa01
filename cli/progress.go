package cli

// This file contains the stderr progress line printed while artifacts
// stream to disk, and the chunk sizing that keeps it readable.

import (
	"fmt"
	"io"
	"os"

	"github.com/avfetch/avfetch/model"
)

// chunkSize derives the per-dot chunk from the largest planned file so the
// dot line for the biggest download stays around fifty dots. Minimum one
// KiB.
func chunkSize(plan []model.LocalArtifact) int64 {
	var max int64
	for _, item := range plan {
		if item.Size > max {
			max = item.Size
		}
	}
	kib := max / 1024 / 50
	if kib < 1 {
		kib = 1
	}
	return kib * 1024
}

// copyWithProgress streams src to dst printing one dot per chunk, in the
// form " => name ...... N bytes".
func copyWithProgress(dst io.Writer, src io.Reader, name string, chunk int64) (int64, error) {
	fmt.Fprintf(os.Stderr, " => %s ", name)

	var written int64
	for {
		n, err := io.CopyN(dst, src, chunk)
		written += n
		if n > 0 {
			fmt.Fprint(os.Stderr, ".")
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return written, err
		}
	}

	fmt.Fprintf(os.Stderr, " %d bytes\n", written)
	return written, nil
}
