package main

import "github.com/pstuifzand/tui-mindmap/internal/cli"

func main() {
	cli.Execute()
}
