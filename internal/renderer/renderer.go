/**
 * Page renderer - PDF to ordered page images
 *
 * Narrow collaborator boundary for rasterization. The pipeline only depends
 * on the Renderer contract: a document in, an ordered sequence of encoded
 * page images out, with a document-fatal error when no pages can be produced.
 */

package renderer

import "context"

// Renderer turns a PDF document into an ordered sequence of page images
// (PNG-encoded byte buffers). It fails only at document level: when the
// document cannot be opened or rendered at all.
type Renderer interface {
	Render(ctx context.Context, pdf []byte) ([][]byte, error)
}
