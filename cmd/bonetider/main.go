package main

import "github.com/pfrederiksen/bonetider/internal/cli"

func main() {
	cli.Execute()
}
