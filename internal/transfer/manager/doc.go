// Package manager coordinates an upload from request to stored object.
//
// It validates and sanitizes the request, decides between a single request and a
// multipart session, prepares the object attributes, and wires progress reporting
// into whichever path runs.
package manager
