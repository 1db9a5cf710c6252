// Package main provides the logcask command-line client.
//
// Usage:
//
//	logcask [-dir <path>] [-config <file>] <command> [args]
//
// Commands:
//
//	get <key>         Print the value for a key
//	set <key> <value> Set a key to a value
//	rm <key>          Remove a key
//
// Flags:
//
//	-dir <path>     Store directory (default ".")
//	-config <file>  YAML options file
//	-V, --version   Print version and exit
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aalhour/logcask"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("logcask", flag.ContinueOnError)
	flags.SetOutput(stderr)
	dir := flags.String("dir", ".", "store directory")
	configPath := flags.String("config", "", "YAML options file")
	var version bool
	flags.BoolVar(&version, "version", false, "print version and exit")
	flags.BoolVar(&version, "V", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		return 1
	}
	if version {
		fmt.Fprintf(stdout, "logcask %s\n", logcask.Version)
		return 0
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 1
	}

	opts, err := loadOptions(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "logcask: %v\n", err)
		return 1
	}

	store, err := logcask.Open(*dir, opts)
	if err != nil {
		fmt.Fprintf(stderr, "logcask: %v\n", err)
		return 1
	}
	defer store.Close()

	switch cmd, rest := flags.Arg(0), flags.Args()[1:]; cmd {
	case "get":
		return runGet(store, rest, stdout, stderr)
	case "set":
		return runSet(store, rest, stderr)
	case "rm":
		return runRemove(store, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "logcask: unknown command %q\n", cmd)
		return 1
	}
}

func loadOptions(path string) (*logcask.Options, error) {
	if path == "" {
		return nil, nil
	}
	return logcask.LoadOptions(path)
}

// runGet prints the value for a key. An absent key prints "Key not found"
// and still exits 0: asking for something that is not there is an answer,
// not a failure.
func runGet(store *logcask.Store, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: logcask get <key>")
		return 1
	}
	value, err := store.Get(args[0])
	if errors.Is(err, logcask.ErrNotFound) {
		fmt.Fprintln(stdout, "Key not found")
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "logcask: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, value)
	return 0
}

func runSet(store *logcask.Store, args []string, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(stderr, "usage: logcask set <key> <value>")
		return 1
	}
	if err := store.Set(args[0], args[1]); err != nil {
		fmt.Fprintf(stderr, "logcask: %v\n", err)
		return 1
	}
	return 0
}

// runRemove deletes a key. Unlike get, removing an absent key is a
// failure: it prints "Key not found" and exits nonzero.
func runRemove(store *logcask.Store, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: logcask rm <key>")
		return 1
	}
	err := store.Remove(args[0])
	if errors.Is(err, logcask.ErrNotFound) {
		fmt.Fprintln(stdout, "Key not found")
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "logcask: %v\n", err)
		return 1
	}
	return 0
}
