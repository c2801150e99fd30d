package main

import "github.com/vfiala/photo-inspector/cmd"

func main() {
	cmd.Execute()
}
