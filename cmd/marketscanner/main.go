package main

import "MarketScanner/internal/cli"

func main() {
	cli.Execute()
}
