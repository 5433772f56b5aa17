// Package main is the entry point for the etsyctl CLI.
package main

import (
	"github.com/donaldgifford/etsy-v3/cmd/etsyctl/cmd"
)

func main() {
	cmd.Execute()
}
