package main

import (
	"errors"
	"log"
	"os"

	"homeworksync/cmd/internal/app"
)

func main() {
	if err := app.Run(os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrUsage) {
			log.Print(err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
