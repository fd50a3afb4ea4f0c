package main

import "github.com/mcoot/bingopot/internal/cli"

func main() {
	cli.Execute()
}
