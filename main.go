package main

import "github.com/creatorhq/roomgate/cmd"

func main() {
	cmd.Execute()
}
