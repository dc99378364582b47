package main

import "github.com/comigor/llm-smoke/internal/cli"

func main() {
	cli.Execute()
}
