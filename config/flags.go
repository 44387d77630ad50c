package config

import (
	"flag"
	"fmt"
	"os"
)

// Config holds per-node runtime settings parsed from the command line.
type Config struct {
	Port   uint16
	DBPath string
	Peers  []string
}

// ParseFlags parses os.Args[1:] into a Config. Remaining positional
// arguments are treated as initial peer addresses.
func ParseFlags() *Config {
	fs := flag.NewFlagSet("ironledgerd", flag.ExitOnError)

	port := fs.Uint("port", 9000, "TCP port to listen on")
	dbPath := fs.String("db-path", "./blockchain_db", "path to the node's embedded store directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--port <u16>] [--db-path <path>] [peer-addr ...]\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if *port > 65535 {
		fmt.Fprintf(os.Stderr, "invalid --port %d: must fit in 16 bits\n", *port)
		os.Exit(1)
	}

	return &Config{
		Port:   uint16(*port),
		DBPath: *dbPath,
		Peers:  fs.Args(),
	}
}
