package main

import "github.com/andresmejia3/warden/cmd"

func main() {
	cmd.Execute()
}
