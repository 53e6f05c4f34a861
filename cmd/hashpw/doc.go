// Command hashpw prints a bcrypt hash for the HTTP frontend password.
//
// Usage:
//
//	hashpw
//
// The password is read twice from the terminal without echo. Both entries
// must match and be at least six characters long. The hash goes to stdout
// and prompts go to stderr, so the output can be redirected:
//
//	hashpw > hash.txt
//
// Put the hash in config.toml:
//
//	[http]
//	password_hash = "$2a$10$..."
//
// The HTTP frontend then requires basic auth with user "jukebox".
package main
