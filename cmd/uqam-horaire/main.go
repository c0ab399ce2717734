package main

import "github.com/pfrederiksen/uqam-horaire/internal/cli"

func main() {
	cli.Execute()
}
