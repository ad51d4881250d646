package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"chordring/internal/logging"
)

// Peer is the subset of *dht.Node the prompt needs. Declared locally rather
// than imported so this package has no compile-time dependency on dht's
// internals beyond the three public operations and a diagnostic dump.
type Peer interface {
	Put(key string, payload []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) (bool, error)
	String() string
}

// RunPrompt drives the single-character operator menu over in and out,
// grounded on s4nat-dns-chord/main.go's showmenu loop (C15): store/find/
// delete a key, or dump this peer's ring state. It returns when in is
// closed (EOF), so callers typically run it in its own goroutine alongside
// Node.Run.
func RunPrompt(peer Peer, in io.Reader, out io.Writer) {
	reader := bufio.NewReader(in)
	printMenu(out)

	for {
		fmt.Fprint(out, "chordring> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "s", "store":
			if len(fields) < 3 {
				fmt.Fprintln(out, "usage: store <key> <value>")
				continue
			}
			key := fields[1]
			value := strings.Join(fields[2:], " ")
			if err := peer.Put(key, []byte(value)); err != nil {
				fmt.Fprintf(out, "store failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "stored")

		case "f", "find", "g", "get":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: find <key>")
				continue
			}
			value, found, err := peer.Get(fields[1])
			if err != nil {
				fmt.Fprintf(out, "find failed: %v\n", err)
				continue
			}
			if !found {
				fmt.Fprintln(out, "not found")
				continue
			}
			fmt.Fprintf(out, "%s\n", value)

		case "d", "delete":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: delete <key>")
				continue
			}
			existed, err := peer.Delete(fields[1])
			if err != nil {
				fmt.Fprintf(out, "delete failed: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "existed: %v\n", existed)

		case "i", "inspect":
			fmt.Fprintln(out, peer.String())

		case "m", "menu":
			printMenu(out)

		case "q", "quit", "exit":
			return

		default:
			fmt.Fprintf(out, "unknown command %q, press m for the menu\n", fields[0])
		}
	}
}

func printMenu(out io.Writer) {
	fmt.Fprintln(out, "********************************")
	fmt.Fprintln(out, "store <key> <value>   store a key")
	fmt.Fprintln(out, "find <key>            look up a key")
	fmt.Fprintln(out, "delete <key>          remove a key")
	fmt.Fprintln(out, "inspect               dump ring state")
	fmt.Fprintln(out, "menu                  show this menu")
	fmt.Fprintln(out, "quit                  exit the prompt")
	fmt.Fprintln(out, "********************************")
	logging.CLI.Printf("prompt ready")
}
