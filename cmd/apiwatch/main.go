package main

import "github.com/Scarage1/API-Watch/internal/cli"

func main() {
	cli.Execute()
}
