package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/paperdesk/paperdesk/internal/scrapeworker"
)

func main() {
	if err := scrapeworker.Run(); err != nil {
		log.Error().Err(err).Msg("scrape-worker exited with error")
		os.Exit(1)
	}
}
