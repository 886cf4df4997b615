package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeOrder   = "order-service"
	ModePayment = "payment-service"
	ModeAuth    = "auth-service"
	ModeNotify  = "notification-service"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeOrder, "order":
		return ModeOrder, true
	case ModePayment, "payment", "pay":
		return ModePayment, true
	case ModeAuth, "auth":
		return ModeAuth, true
	case ModeNotify, "notify", "notification":
		return ModeNotify, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `order-service --port=3001`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "--mode=") {
			mode = strings.TrimPrefix(arg, "--mode=")
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, nil
	}

	if m, ok := isKnownMode(mode); ok {
		return m, out, nil
	}

	return "", out, fmt.Errorf("unknown mode %q", mode)
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // switch the color to cyan

	fmt.Fprintln(w, `Usage:
  ./dinesync --mode=<service> [flags]

Services (modes):
  order-service          HTTP API for placing and tracking orders
  payment-service        HTTP API for table checkout
  auth-service           HTTP API issuing table session tokens
  notification-service   Event subscriber fanning out device notifications

Examples:
  ./dinesync --mode=order-service --port=3000
  ./dinesync --mode=payment-service --port=3003
  ./dinesync --mode=auth-service --port=3004
  ./dinesync --mode=notification-service --port=3005`)

	fmt.Fprint(w, "\033[0m") // switch back to normal
}

func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./dinesync --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
