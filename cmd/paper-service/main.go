package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/paperdesk/paperdesk/internal/paperservice"
)

func main() {
	if err := paperservice.Run(); err != nil {
		log.Error().Err(err).Msg("paper-service exited with error")
		os.Exit(1)
	}
}
