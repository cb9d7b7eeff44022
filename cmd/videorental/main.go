// Command videorental runs the video rental API and its maintenance tasks.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("videorental failed")
		os.Exit(1)
	}
}
