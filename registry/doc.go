// Package registry resolves the active version of a prompt across a project
// directory and a user-global defaults directory. The project directory shadows
// the global one; all writes go to the project directory.
package registry
