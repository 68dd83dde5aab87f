package main

import "github.com/wicart/storefront/cmd"

func main() {
	cmd.Execute()
}
