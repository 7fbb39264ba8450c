package main

import "github.com/theirongolddev/wealthtax/cmd"

func main() {
	cmd.Execute()
}
