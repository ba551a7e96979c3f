package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"comanda-api/internal/floor"
	"comanda-api/internal/mylogger"
	"comanda-api/internal/notsub"
)

func main() {
	var mode string
	var serviceArgs []string

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
		} else if arg == "--mode" && i+1 < len(os.Args) {
			mode = os.Args[i+1]
			i++
		} else {
			serviceArgs = append(serviceArgs, arg)
		}
	}

	ctx := context.Background()

	var err error
	switch mode {
	case "server":
		err = floor.Execute(ctx, mylogger.New("floor-service", false), serviceArgs)
	case "subscriber":
		err = notsub.Execute(ctx, mylogger.New("notification-subscriber", false), serviceArgs)
	default:
		fmt.Println("Invalid mode. Use --mode=server or --mode=subscriber")
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}
