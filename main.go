package main

import "github.com/kojohq/topicscope/cmd"

func main() {
	cmd.Execute()
}
