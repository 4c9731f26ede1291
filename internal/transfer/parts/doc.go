// Package parts splits a payload into multipart upload parts and selects the part size.
package parts
