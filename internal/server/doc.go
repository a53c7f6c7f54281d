// Package server exposes an album store over HTTP for the rotary viewer.
//
// # Routes
//
//	GET /api/albums                            all albums
//	GET /api/albums/{id}                       one album
//	GET /api/albums/{id}/images/{name}         frame bytes (primary URL)
//	GET /api/albums/{id}/images/{name}/info    size, dimensions, EXIF
//	GET /static/albums/{id}/{name}             frame bytes (fallback URL)
//	GET /health                                liveness
//	GET /                                      service index
//
// JSON routes answer with the Response envelope. Unknown routes get a 404
// envelope naming the path. Frame bytes carry a one day public Cache-Control
// and a content type derived from the file extension.
//
// Every response allows any origin. Handler panics are logged and reported as
// a 500 envelope.
package server
