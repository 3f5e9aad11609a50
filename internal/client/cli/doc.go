// Package cli implements keeperctl, the command-line client of the
// Strongholder key server.
//
// Each invocation runs one command:
//
//	keeperctl [-a addr] [-db file] [-t seconds] <command> [args]
//
// Commands: signup, signin, logout, whoami, archives, content <archive>,
// logs, restore <archive> [file], key [file], pubkey, sendkey <file>.
//
// The session token lives in a small SQLite database and is replaced
// whenever the server hands out a refreshed one.
package cli
