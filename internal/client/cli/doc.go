// Package cli is the moodjournal command-line client.
//
// Every subcommand (signup, login, logout, profile, write, history, analysis,
// export, ping) runs once and exits; "shell" starts an interactive loop that
// restores the saved session and accepts the same verbs. Journal text is
// encrypted and decrypted here, never on the server.
package cli
