package main

import (
	"bithumb-backoffice/internal/cli"
)

func main() {
	cli.Execute()
}
