package main

import (
	"Bt1QPlay/cmd"
)

func main() {
	cmd.Execute()
}
