package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "vendorbird: %v\n", err)
		os.Exit(1)
	}
}
