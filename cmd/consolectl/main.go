package main

import "github.com/dvcrn/console-client/internal/cli"

func main() {
	cli.Execute()
}
