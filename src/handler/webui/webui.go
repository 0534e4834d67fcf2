package webui

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed page.html style.css
var files embed.FS

// Files returns the web UI assets. Debug builds read them from the source
// tree so they can be edited without rebuilding.
func Files(build string) fs.FS {
	switch build {
	case "release":
		return files
	case "debug":
		return os.DirFS("src/handler/webui")
	}
	panic(fmt.Errorf("invalid build: %q", build))
}
