package main

import "github.com/oakline/sitetruth/cmd"

func main() {
	cmd.Execute()
}
