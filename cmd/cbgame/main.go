package main

import "github.com/codebreakergame/codebreaker-go/internal/cli"

func main() {
	cli.Execute()
}
