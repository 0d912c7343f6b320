// Package auth stores and retrieves the osu! account used to log in.
//
// Credentials are looked up in order: the system keyring, an AES-GCM
// encrypted file under the osudl home directory, the plain credentials.json
// left by older releases, and finally OSUDL_USERNAME/OSUDL_PASSWORD. When
// nothing is stored, Resolve prompts on the terminal and offers to save the
// answer.
package auth
