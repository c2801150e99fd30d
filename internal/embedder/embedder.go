// Package embedder turns image files into fixed-length embedding vectors.
// The Provider interface hides the actual model; the Adapter wraps a
// provider with file loading and typed failure classification.
package embedder

import (
	"context"
	"os"

	"github.com/vfiala/photo-inspector/internal/imaging"
)

// MaxImageSize is the maximum dimension (width or height) sent to the
// embedding provider. Larger images are scaled down first.
const MaxImageSize = 1920

// Provider computes an embedding vector for raw image bytes. For the same
// bytes and the same model version, the returned vector must be stable
// across calls (no inference-time randomness).
type Provider interface {
	// Embed returns the embedding vector for the given image data.
	Embed(ctx context.Context, imageData []byte) ([]float32, error)

	// Dim returns the declared vector dimensionality.
	Dim() int

	// Name returns the model identifier.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// Adapter wraps a Provider with filesystem access. The provider is an
// explicit constructor dependency; the adapter never reaches for global
// state.
type Adapter struct {
	provider Provider
	maxSize  int
}

// NewAdapter creates an adapter around the given provider.
func NewAdapter(provider Provider) *Adapter {
	return &Adapter{provider: provider, maxSize: MaxImageSize}
}

// Provider returns the wrapped provider.
func (a *Adapter) Provider() Provider {
	return a.provider
}

// EmbedFile reads, resizes and embeds a single image file. Failures are
// never fatal: a vanished path yields a FileError of kind missing, anything
// the file or the provider chokes on yields kind unreadable.
func (a *Adapter) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		kind := KindUnreadable
		if os.IsNotExist(err) {
			kind = KindMissing
		}
		return nil, &FileError{Path: path, Kind: kind, Err: err}
	}

	resized, err := imaging.Resize(data, a.maxSize)
	if err != nil {
		return nil, &FileError{Path: path, Kind: KindUnreadable, Err: err}
	}

	vec, err := a.provider.Embed(ctx, resized)
	if err != nil {
		// Cancellation is a run-level event, not a per-file failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FileError{Path: path, Kind: KindUnreadable, Err: err}
	}

	return vec, nil
}
