package main

import "github.com/waabox/sitedeck/cmd/sitedeck/commands"

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	commands.Execute(version)
}
