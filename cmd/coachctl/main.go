package main

import "github.com/dmitrymomot/coachkit/cmd/coachctl/cmd"

func main() {
	cmd.Execute()
}
