package main

import (
	"os"

	"github.com/rs/zerolog/log"
)

func main() {
	if err := execute(os.Stdout, os.Args[1:]); err != nil {
		if _, ok := err.(*exitError); !ok {
			log.Error().Err(err).Msg("vigenere failed")
		}
		os.Exit(1)
	}
}
