package leadform

import (
	"io/fs"

	"github.com/goliatone/go-leadform/pkg/renderers/vanilla"
)

// EmbeddedAssets exposes the stylesheet and logo the templates link to, so
// Go applications can serve them without a build step.
//
// Typical mount:
//
//	mux.Handle("/static/",
//	  http.StripPrefix("/static/",
//	    http.FileServerFS(leadform.EmbeddedAssets()),
//	  ),
//	)
func EmbeddedAssets() fs.FS {
	return vanilla.AssetsFS()
}
