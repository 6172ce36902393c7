// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdiddy/wpconvert/internal/container"
	"github.com/pdiddy/wpconvert/internal/retry"
)

// DefaultImage reads a document on stdin and writes a PDF on stdout.
const DefaultImage = "wpconvert/soffice:latest"

// pdfMagic starts every PDF file.
var pdfMagic = []byte("%PDF-")

// ContainerConverter converts documents by piping them through a container
// image. It depends on a container.Runtime (docker or podman) injected at
// construction time.
type ContainerConverter struct {
	runtime container.Runtime
	image   string
}

// NewContainerConverter creates a converter that runs image through rt. It
// verifies that the image exists locally before returning.
func NewContainerConverter(ctx context.Context, rt container.Runtime, image string) (*ContainerConverter, error) {
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(ctx, image); err != nil {
		return nil, fmt.Errorf("conversion image not available in %s: %w", rt.Name(), err)
	}
	return &ContainerConverter{runtime: rt, image: image}, nil
}

// Convert pipes src through the container and writes the PDF to dst. The
// output is written to a temporary sibling and renamed into place only when
// it looks like a PDF.
func (c *ContainerConverter) Convert(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return retry.Permanent(fmt.Errorf("opening %s: %w", src, err))
	}
	defer f.Close()

	var out bytes.Buffer
	if err := c.runtime.Run(ctx, c.image, f, &out); err != nil {
		return err
	}
	if !bytes.HasPrefix(out.Bytes(), pdfMagic) {
		return fmt.Errorf("%s produced no PDF for %s", c.image, src)
	}

	part := dst + ".part"
	if err := os.WriteFile(part, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", part, err)
	}
	if err := os.Rename(part, dst); err != nil {
		os.Remove(part)
		return fmt.Errorf("moving %s into place: %w", dst, err)
	}
	return nil
}
