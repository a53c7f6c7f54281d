package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/rotary/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override rotary config path (optional)")
	albumsDir := flag.String("albums", "", "albums directory (optional, overrides albums_dir)")
	listen := flag.String("listen", "", "listen address (optional, overrides listen)")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := app.Serve(ctx, app.ServeOptions{
		ConfigPath: *configPath,
		AlbumsDir:  *albumsDir,
		Listen:     *listen,
		Verbose:    *verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "rotaryd: %v\n", err)
		return 1
	}
	return 0
}
