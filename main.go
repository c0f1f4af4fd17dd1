package main

import "github.com/Oshadha-Nimantha/osdrp/cmd"

func main() {
	cmd.Execute()
}
