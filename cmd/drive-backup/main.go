package main

import (
	"github.com/kumbirai/google-drive-backup/internal/cli"
)

func main() {
	cli.Execute()
}
