// Package textutil provides filename and identifier sanitation for paths that
// are built from user-controlled input such as chat upload names and session
// identifiers.
package textutil
