package main

import "github.com/Geun-Oh/switchsink/cmd/switchsink/cmd"

func main() {
	cmd.Execute()
}
