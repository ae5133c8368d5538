package main

import (
	"os"

	"github.com/supabridge/supabridge/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
