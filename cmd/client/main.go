package main

import (
	"errors"
	"fmt"
	"os"

	"notes-api/pkg/client"
)

func main() {
	Execute()
}

// fatal печатает ошибку с подсказкой по типу и завершает процесс
func fatal(msg string, err error) {
	var ae *client.APIError
	var te *client.TransportError
	switch {
	case client.IsRateLimited(err) && errors.As(err, &ae):
		fmt.Fprintf(os.Stderr, "%s: rate limited, retry in %s\n", msg, ae.RetryAfter)
	case errors.As(err, &ae):
		fmt.Fprintf(os.Stderr, "%s: %s (%d %s)\n", msg, ae.Message, ae.Status, ae.Code)
	case errors.As(err, &te):
		fmt.Fprintf(os.Stderr, "%s: server unreachable: %v\n", msg, te.Err)
	default:
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	}
	os.Exit(1)
}
