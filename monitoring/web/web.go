// Package web embeds the status page served by the monitor.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// DevModeEnv names the variable that switches the monitor to serving the
// page from the source tree, so that edits show up without rebuilding.
const DevModeEnv = "ADHOCSIM_MONITOR_DEV"

//go:embed dist/*
var dist embed.FS

// GetAssets returns the file system holding index.html.
func GetAssets() http.FileSystem {
	if devMode() {
		_, self, _, ok := runtime.Caller(0)
		if !ok {
			log.Panic("cannot locate the monitor sources")
		}

		dir := filepath.Join(filepath.Dir(self), "dist")
		log.Printf("monitor serves assets from %s", dir)

		return http.Dir(dir)
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		log.Panic(err)
	}

	return http.FS(sub)
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))

	return err == nil && on
}
