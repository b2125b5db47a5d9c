// Package state persists the record of installed binaries as a JSON file
// under the warden root. The installer appends to it after every verified
// install and the verify command reads it back.
package state
