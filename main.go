package main

import "github.com/hurou927/db-metadata/cmd"

func main() {
	cmd.Execute()
}
