// Package gallery provides an HTTP client for the rotary album API.
//
// # Overview
//
// The client is the viewer's link to the server. It lists albums for the
// browser, supplies the ordered frame list of an album, resolves frame URLs
// and downloads and decodes frame images.
//
// # Client Usage
//
//	client, err := gallery.NewClient("127.0.0.1:3001", gallery.WithImageRate(20))
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//
//	albums, err := client.FetchAlbums(ctx)
//	frames, err := client.FrameList(ctx, "vase")
//
// # Frame URLs
//
// Each frame has two URLs:
//
//   - Primary:  /api/albums/{id}/images/{name}
//   - Fallback: /static/albums/{id}/{name}
//
// Resolver binds both to one album so a viewer.Preloader can try the primary
// first and the fallback once.
//
// # Image Loading
//
// LoadImage decodes JPEG, PNG, GIF, BMP and WebP and applies the EXIF
// orientation tag through github.com/disintegration/imaging. Image requests
// share a golang.org/x/time/rate limiter configured with WithImageRate; the
// default is unlimited. JSON requests use a 5 second timeout and image
// requests 30 seconds.
//
// # Error Handling
//
// HTTP errors carry the server's envelope message when there is one:
//
//	api /api/albums/nope returned status 404: Album not found
//
// Responses that are not valid JSON return "decode response" errors.
package gallery
