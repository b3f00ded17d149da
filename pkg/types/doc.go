// Package types defines the icon record shared by the stores, the generation
// pipeline and the HTTP API, along with the slug and display-name rules that
// derive a record's identity from a user-supplied name.
package types
