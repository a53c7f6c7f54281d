// Package album serves rotary albums from a directory tree.
//
// # Layout
//
// Every child directory of the albums root is an album; its name is the album
// id. Frames are the files whose extension is one of .jpg, .jpeg, .png, .gif,
// .bmp or .webp (case-insensitive), ordered by file name:
//
//	albums/
//	  vase/
//	    metadata.json
//	    001.jpg
//	    002.jpg
//	  chair/
//	    a.png
//
// # Metadata
//
// Each album keeps a metadata.json with its display name, description, frame
// list, shooting info and timestamps. The store creates the file on first
// access (or when it no longer parses), taking shooting info from the EXIF of
// the first frame. When the recorded frame list differs from the directory,
// the list is replaced, updatedAt is bumped and the file is rewritten. Other
// fields are left as the user edited them.
//
// # EXIF
//
// EXIF is read with github.com/rwcarlsen/goexif. Files without EXIF are not
// an error: their field map is nil and image dimensions come from the image
// header instead.
//
// # Caching
//
// Metadata is cached in memory only while Watch runs. Watch subscribes to
// fsnotify events for the root and every album directory and drops the cached
// entry of any album that changes.
//
// # Errors
//
// Ids and file names that are empty, contain a path separator or would
// resolve outside the root are reported as ErrNotFound, the same as missing
// entries.
package album
