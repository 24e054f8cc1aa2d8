package main

import (
	"context"
	"fmt"
	"os"

	"github.com/effective-security/toolbelt/internal/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
