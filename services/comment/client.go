// Package comment fetches bullet comments from the supported video
// platforms and converts them to the canonical wire shape.
package comment

import (
	"context"

	"barrage/models"
)

// Client fetches the raw comment stream for one platform.
type Client interface {
	// Platform reports which platform this client talks to.
	Platform() models.Platform

	// Fetch downloads all comments for the given video reference. The
	// reference format is platform specific: a page URL for the URL
	// platforms, an episode identifier for renren and hanjutv.
	Fetch(ctx context.Context, ref string) ([]models.RawComment, error)
}
