// Package main provides the entry point for the whole-slide image viewer.
package main

import (
	"flag"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"wsi-viewer/internal/config"
	"wsi-viewer/internal/session"
	"wsi-viewer/internal/version"
	"wsi-viewer/ui/viewer"
)

const appTitle = "WSI Viewer"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", config.DefaultFile, "path to the viewer configuration")
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: wsi-viewer [-config file] image [image ...]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sess, err := session.New(flag.Args(), cfg)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer sess.Close()

	log.Printf("Starting %s v%s with %d image(s)", appTitle, version.Version, len(sess.Paths))

	a := app.New()
	win := a.NewWindow(appTitle)
	view := viewer.New(sess)
	win.SetContent(view)
	win.Resize(fyne.NewSize(session.WindowWidth, session.WindowHeight))
	win.Canvas().SetOnTypedKey(view.HandleKey)
	win.ShowAndRun()
}
